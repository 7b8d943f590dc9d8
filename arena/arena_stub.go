//go:build !linux

// arena_stub.go — portable fallback without hugetlb, THP, or NUMA control.
//
// Non-Linux hosts get a page-aligned heap region. Explicit huge pages and
// weighted placement cannot be honored there, and silently ignoring them
// would produce numbers that look valid but measure the wrong memory, so
// both requests are fatal.

package arena

import (
	"unsafe"

	"main/debug"
)

func osAlloc(cfg Config, pageSize, size uint64) []byte {
	if PageSizeIsHuge(pageSize) && !cfg.UseTHP {
		debug.Fatal("arena", "explicit huge pages are only supported on linux")
	}
	if picker := newWeightedPicker(cfg.Weights); picker != nil {
		debug.Fatal("arena", "weighted NUMA placement is only supported on linux")
	}

	native := NativePageSize()
	raw := make([]byte, size+native)
	base := uintptr(unsafe.Pointer(&raw[0]))
	skew := uint64(0)
	if rem := uint64(base) % native; rem != 0 {
		skew = native - rem
	}
	return raw[skew : skew+size : skew+size]
}
