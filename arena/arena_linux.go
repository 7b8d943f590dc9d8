//go:build linux

// arena_linux.go — anonymous private mmap with hugetlb, THP, and mbind control.

package arena

import (
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"main/debug"
	"main/utils"
)

const thpEnabledPath = "/sys/kernel/mm/transparent_hugepage/enabled"

// mbind(2) ABI values from linux/mempolicy.h; x/sys/unix exports the
// syscall number but not the policy constants.
const (
	mpolBind     = 2
	mpolMFStrict = 0x1
)

// pageSizeFlags encodes an explicit huge-page request into mmap flags.
// The page-size selector is log2(page_size) shifted into the MAP_HUGE bits.
// Power-of-two page sizes are guaranteed by config validation before any
// mapping is attempted.
func pageSizeFlags(pageSize uint64) int {
	if !PageSizeIsHuge(pageSize) {
		return 0
	}
	log2 := 0
	for ps := pageSize; ps > 1; ps >>= 1 {
		log2++
	}
	return unix.MAP_HUGETLB | (log2 << unix.MAP_HUGE_SHIFT)
}

func osAlloc(cfg Config, pageSize, size uint64) []byte {
	explicitHuge := PageSizeIsHuge(pageSize) && !cfg.UseTHP

	flags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	if explicitHuge {
		flags |= pageSizeFlags(pageSize)
	}

	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		debug.Fatal("mmap", utils.Utoa(size)+" bytes: "+err.Error())
	}

	switch {
	case explicitHuge:
		// hugetlb pages are placed by the kernel's hugetlb pool; nothing
		// further to advise.
	case cfg.UseTHP:
		ensureTHPPolicy()
		if err := unix.Madvise(mem, unix.MADV_HUGEPAGE); err != nil {
			debug.FatalError("madvise(MADV_HUGEPAGE)", err)
		}
	default:
		// Disable THP on normal-sized mappings so the kernel cannot
		// promote pages mid-run and shift the measured TLB behavior.
		if err := unix.Madvise(mem, unix.MADV_NOHUGEPAGE); err != nil {
			debug.DropError("madvise(MADV_NOHUGEPAGE)", err)
		}
	}

	if picker := newWeightedPicker(cfg.Weights); picker != nil {
		weightedMbind(mem, picker)
	}
	return mem
}

// ensureTHPPolicy verifies the kernel's transparent-huge-page admission
// policy. The sysfs file marks the active option with brackets, e.g.
// "always [madvise] never". If neither "always" nor "madvise" is active,
// the policy is repaired to "madvise" so MADV_HUGEPAGE can take effect.
func ensureTHPPolicy() {
	data, err := os.ReadFile(thpEnabledPath)
	if err != nil {
		debug.FatalError("thp policy read", err)
	}
	switch current := bracketedToken(string(data)); current {
	case "always", "madvise":
		return
	default:
		debug.DropMessage(1, "THP", "admission policy is '"+current+"', switching to madvise")
	}
	if err := os.WriteFile(thpEnabledPath, []byte("madvise"), 0o644); err != nil {
		debug.FatalError("thp policy write", err)
	}
}

// bracketedToken extracts the bracket-marked option from a space-separated
// sysfs policy line.
func bracketedToken(line string) string {
	for _, tok := range strings.Fields(line) {
		if len(tok) >= 2 && tok[0] == '[' && tok[len(tok)-1] == ']' {
			return tok[1 : len(tok)-1]
		}
	}
	return ""
}

// weightedMbind binds the mapping one native page at a time, drawing a
// weighted-random node for each page and forcing the page resident before
// moving to the next. MPOL_MF_STRICT makes an unsatisfiable bind fatal
// rather than silently falling back: inconsistent placement would make the
// whole run meaningless.
func weightedMbind(mem []byte, picker *weightedPicker) {
	pageSize := NativePageSize()
	for off := uint64(0); off < uint64(len(mem)); off += pageSize {
		node := picker.pick()
		mask := uint64(1) << uint(node)
		_, _, errno := unix.Syscall6(
			unix.SYS_MBIND,
			uintptr(unsafe.Pointer(&mem[off])),
			uintptr(pageSize),
			mpolBind,
			uintptr(unsafe.Pointer(&mask)),
			MaxMemNodes,
			mpolMFStrict,
		)
		if errno != 0 {
			debug.Fatal("mbind", "node "+utils.Itoa(node)+": "+errno.Error())
		}
		mem[off] = 0
	}
	debug.DropMessage(2, "ARENA", "weighted mbind complete, "+
		utils.Utoa(uint64(len(mem))/pageSize)+" pages placed")
}
