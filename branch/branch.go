// branch.go — capability interface for rewriting a built chase into
// executable branch sequences. Emission is per instruction set; targets
// without an emitter refuse instead of compiling garbage.

package branch

import (
	"errors"
	"unsafe"
)

// ScratchBytes is the space every chase element must provide beyond its
// pointer field for emitted instructions.
const ScratchBytes = 16

// ErrNotImplemented is returned on targets without an instruction
// emitter.
var ErrNotImplemented = errors.New("branch chase is not implemented on this architecture")

// Compiler rewrites a cyclic pointer chase into an equivalent sequence
// of branch instructions in place.
type Compiler interface {
	// Compile takes the chase head and the requested chunk size and
	// returns the effective chunk size used. The element storage behind
	// the chase is mutated to hold instructions.
	Compile(head unsafe.Pointer, chunkSize uint64) (uint64, error)
}

// For returns the compiler for the current target, or nil when emission
// is unsupported here.
func For() Compiler {
	return current
}

// CheckScratch validates the element-size contract shared by all
// emitters: each element needs ScratchBytes past the pointer.
func CheckScratch(baseObjectSize uint64) error {
	if baseObjectSize < 8+ScratchBytes {
		return errors.New("branch chase needs elements with 16 bytes of scratch past the pointer")
	}
	return nil
}

// No emitter is wired on any target yet; every Compile refuses.
var current Compiler = unsupported{}

type unsupported struct{}

func (unsupported) Compile(unsafe.Pointer, uint64) (uint64, error) {
	return 0, ErrNotImplemented
}
