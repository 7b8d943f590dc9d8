// ════════════════════════════════════════════════════════════════════════════════════════════════
// Arena Allocator
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Backing Memory Acquisition
//
// Description:
//   Obtains the contiguous regions every chase runs over. The benchmark result
//   is only meaningful when the backing memory has known physical properties,
//   so this layer controls page size, huge-page policy, and per-page NUMA
//   placement, and aborts the process on any failure — there is no degraded
//   mode for a measurement tool.
//
// Ownership:
//   Arenas live for the process lifetime once allocated. They are never
//   resized or individually freed; process exit reclaims them.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package arena

import (
	"os"
	"unsafe"

	"main/debug"
	"main/rng"
	"main/utils"
)

// MaxMemNodes bounds the weighted NUMA placement table (one bit per node in
// the mbind nodemask word).
const MaxMemNodes = 64

// Config describes the physical properties requested for a region.
type Config struct {
	// PageSize is the backing page size; 0 means the native page size.
	// Sizes above native request explicit huge-page (hugetlb) backing and
	// must be a power of two — validated by the config layer before any
	// mapping is attempted.
	PageSize uint64

	// UseTHP requests transparent huge pages instead of explicit hugetlb
	// backing. The allocator verifies (and repairs) the kernel's THP
	// admission policy before advising the mapping.
	UseTHP bool

	// Weights holds per-node relative weights for page placement. A nil or
	// all-zero table disables weighted binding.
	Weights []uint16
}

// Arena is an opaque, page-aligned, contiguous byte region.
type Arena struct {
	mem      []byte
	pageSize uint64
}

// NativePageSize returns the platform's base page size.
func NativePageSize() uint64 {
	return uint64(os.Getpagesize())
}

// PageSizeIsHuge reports whether ps exceeds the native page size.
func PageSizeIsHuge(ps uint64) bool {
	return ps > NativePageSize()
}

// Alloc maps a region of at least size bytes with the requested properties.
// The size is rounded up to a multiple of the page size. Any failure is
// fatal: the process aborts with a diagnostic (see package comment).
func Alloc(cfg Config, size uint64) *Arena {
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = NativePageSize()
	}
	pagemask := pageSize - 1
	size = (size + pagemask) &^ pagemask

	a := &Arena{
		mem:      osAlloc(cfg, pageSize, size),
		pageSize: pageSize,
	}
	debug.DropMessage(2, "ARENA", utils.Utoa(size)+" bytes mapped, page size "+utils.Utoa(pageSize))
	return a
}

// Size returns the mapped length in bytes (post page rounding).
func (a *Arena) Size() uint64 {
	return uint64(len(a.mem))
}

// Bytes exposes the raw region.
func (a *Arena) Bytes() []byte {
	return a.mem
}

// At returns a pointer to the byte at off. This is the single bounds-checked
// accessor used by both chase construction and verification; walkers receive
// only pointers produced here.
//
//go:inline
func (a *Arena) At(off uint64) unsafe.Pointer {
	return unsafe.Pointer(&a.mem[off])
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WEIGHTED NODE SELECTION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// weightedPicker draws node indices with probability proportional to the
// configured weights. The cumulative sum intentionally starts at
// weights[0]-1: a draw r hits bucket i when r <= cumsum[i], and the FIRST
// matching bucket is authoritative — with a single nonzero weight every draw
// resolves to that node.
type weightedPicker struct {
	cumsum []int64
	sum    int64
	r      *rng.Source
}

// newWeightedPicker returns nil when the weight table is absent or all-zero.
// The draw stream is seeded independently of any thread RNG so placement is
// reproducible regardless of thread count.
func newWeightedPicker(weights []uint16) *weightedPicker {
	if len(weights) == 0 {
		return nil
	}
	cumsum := make([]int64, len(weights))
	cumsum[0] = int64(weights[0]) - 1
	for i := 1; i < len(weights); i++ {
		cumsum[i] = cumsum[i-1] + int64(weights[i])
	}
	sum := cumsum[len(weights)-1] + 1
	if sum <= 0 {
		return nil
	}
	return &weightedPicker{cumsum: cumsum, sum: sum, r: rng.New(1)}
}

// pick returns the node index for the next page.
func (w *weightedPicker) pick() int {
	r := int64(w.r.Next(1<<31) % uint64(w.sum))
	for node := range w.cumsum {
		if w.cumsum[node] >= r {
			return node
		}
	}
	// Unreachable: r < sum == cumsum[last]+1.
	return len(w.cumsum) - 1
}
