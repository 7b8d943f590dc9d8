//go:build !linux

// affinity_stub.go — no-op pinning for platforms without sched_setaffinity.
//
// Maintains the same API surface so higher-level code needs no conditional
// compilation. Runs without pinning measure scheduler placement as well as
// the memory system; LockOSThread still keeps each walker on one OS thread.

package affinity

import "runtime"

// PinToNth is a no-op where CPU affinity is unsupported.
func PinToNth(n int) {}

// AvailableCPUs falls back to the runtime's view of the machine.
func AvailableCPUs() int {
	return runtime.NumCPU()
}
