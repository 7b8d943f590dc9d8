// walkers_amd64.go — strategies that need ISA-level control over the memory
// access: software prefetch hints and full-line SSE2 reads. The timed loops
// live in walkers_amd64.s; Go only batches them and bumps the counter.

package chase

import (
	"sync/atomic"
	"unsafe"
)

// Implemented in walkers_amd64.s. Each runs 100 dependent steps and
// returns the advanced pointer.
func chaseBatchT0(p unsafe.Pointer) unsafe.Pointer
func chaseBatchT1(p unsafe.Pointer) unsafe.Pointer
func chaseBatchT2(p unsafe.Pointer) unsafe.Pointer
func chaseBatchNTA(p unsafe.Pointer) unsafe.Pointer
func chaseBatchMovdqa(p unsafe.Pointer) unsafe.Pointer

//go:norace
func chasePrefetchT0(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		p = chaseBatchT0(p)
		atomic.AddUint64(&t.Count, 100)
	}
}

//go:norace
func chasePrefetchT1(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		p = chaseBatchT1(p)
		atomic.AddUint64(&t.Count, 100)
	}
}

//go:norace
func chasePrefetchT2(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		p = chaseBatchT2(p)
		atomic.AddUint64(&t.Count, 100)
	}
}

//go:norace
func chasePrefetchNTA(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		p = chaseBatchNTA(p)
		atomic.AddUint64(&t.Count, 100)
	}
}

// chaseMovdqa reads the whole 64-byte element with four 16-byte vector
// loads and recovers the next pointer from their sum. The element past
// the pointer is zero, so the sum is the pointer itself.
//
//go:norace
func chaseMovdqa(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		p = chaseBatchMovdqa(p)
		atomic.AddUint64(&t.Count, 100)
	}
}

func init() {
	ptr := uint64(unsafe.Sizeof(uintptr(0)))
	Chases = append(Chases,
		Chase{Fn: chasePrefetchT0, BaseObjectSize: ptr, Name: "t0", Usage1: "t0", Usage2: "prefetch next object with prefetcht0", Parallelism: 1},
		Chase{Fn: chasePrefetchT1, BaseObjectSize: ptr, Name: "t1", Usage1: "t1", Usage2: "prefetch next object with prefetcht1", Parallelism: 1},
		Chase{Fn: chasePrefetchT2, BaseObjectSize: ptr, Name: "t2", Usage1: "t2", Usage2: "prefetch next object with prefetcht2", Parallelism: 1},
		Chase{Fn: chasePrefetchNTA, BaseObjectSize: ptr, Name: "nta", Usage1: "nta", Usage2: "prefetch next object with prefetchnta", Parallelism: 1},
		Chase{Fn: chaseMovdqa, BaseObjectSize: CacheLineSize, Name: "movdqa", Usage1: "movdqa", Usage2: "like simple, but read the full line with 16B vector loads", Parallelism: 1},
	)
}
