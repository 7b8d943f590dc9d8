// ════════════════════════════════════════════════════════════════════════════════════════════════
// Latency Walkers
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Portable Chase Kernels
//
// Description:
//   Each kernel repeatedly dereferences its chase pointer(s) in a fixed
//   batch and fetch-adds the batch size into the thread counter, so the
//   loop/counter overhead is amortized against the deref latency being
//   measured. Batch sizes mirror the unroll factors the measurement was
//   calibrated with: 200 derefs per counter update for the simple chase,
//   n*expand for the parallel variants.
//
//   Latency kernels never return. Workers are daemon-like: the harness
//   discards them when the sampling window ends and process exit reclaims
//   everything, because a stop check would put a foreign-cacheline branch
//   inside the measured loop.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package chase

import (
	"sync/atomic"
	"unsafe"
)

// chaseSimple: no frills pointer dereferencing.
//
//go:norace
//go:nocheckptr
func chaseSimple(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		for i := 0; i < 25; i++ {
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
			p = *(*unsafe.Pointer)(p)
		}
		atomic.AddUint64(&t.Count, 200)
	}
}

// chaseWork overlaps a computation loop with each dereference. The pointer
// value is folded into the accumulator first so the extra work cannot be
// scheduled past the next dereference, and the accumulator lands in Dummy
// so none of it is dead.
//
//go:norace
//go:nocheckptr
func chaseWork(t *ThreadContext) {
	p := t.Cycle[0]
	extra := t.ExtraArg
	var work uint64
	for {
		for i := 0; i < 25; i++ {
			work += uint64(uintptr(p))
			p = *(*unsafe.Pointer)(p)
			for j := uint64(0); j < extra; j++ {
				work ^= j
			}
		}
		atomic.AddUint64(&t.Count, 25)
		t.Dummy = work
	}
}

// chaseIncr writes the word after the next pointer on every hop, measuring
// the read-for-ownership cost on top of the load.
//
//go:norace
//go:nocheckptr
func chaseIncr(t *ThreadContext) {
	p := t.Cycle[0]
	for {
		for i := 0; i < 25; i++ {
			*(*uint32)(unsafe.Add(p, 8))++
			p = *(*unsafe.Pointer)(p)
			*(*uint32)(unsafe.Add(p, 8))++
			p = *(*unsafe.Pointer)(p)
		}
		atomic.AddUint64(&t.Count, 50)
	}
}

// chaseCritword2 drives two dependent streams offset by ExtraArg bytes,
// probing critical-word-first behavior across a line.
//
//go:norace
//go:nocheckptr
func chaseCritword2(t *ThreadContext) {
	p := t.Cycle[0]
	q := unsafe.Add(p, uintptr(t.ExtraArg))
	for {
		for i := 0; i < 50; i++ {
			p = *(*unsafe.Pointer)(p)
			q = *(*unsafe.Pointer)(q)
			p = *(*unsafe.Pointer)(p)
			q = *(*unsafe.Pointer)(q)
		}
		atomic.AddUint64(&t.Count, 100)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PARALLEL CHASES
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// The parallelN kernels alternate N independent chases so the core keeps N
// loads in flight; per-iteration deref counts shrink as N grows to hold the
// batch near 200 operations (2x100, 3x66, ... 10x20).

//go:norace
//go:nocheckptr
func chaseParallel2(t *ThreadContext) {
	p0, p1 := t.Cycle[0], t.Cycle[1]
	for {
		for i := 0; i < 100; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
		}
		atomic.AddUint64(&t.Count, 200)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel3(t *ThreadContext) {
	p0, p1, p2 := t.Cycle[0], t.Cycle[1], t.Cycle[2]
	for {
		for i := 0; i < 66; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
		}
		atomic.AddUint64(&t.Count, 198)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel4(t *ThreadContext) {
	p0, p1, p2, p3 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3]
	for {
		for i := 0; i < 50; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
		}
		atomic.AddUint64(&t.Count, 200)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel5(t *ThreadContext) {
	p0, p1, p2, p3, p4 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3], t.Cycle[4]
	for {
		for i := 0; i < 40; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
		}
		atomic.AddUint64(&t.Count, 200)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel6(t *ThreadContext) {
	p0, p1, p2 := t.Cycle[0], t.Cycle[1], t.Cycle[2]
	p3, p4, p5 := t.Cycle[3], t.Cycle[4], t.Cycle[5]
	for {
		for i := 0; i < 32; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
			p5 = *(*unsafe.Pointer)(p5)
		}
		atomic.AddUint64(&t.Count, 192)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel7(t *ThreadContext) {
	p0, p1, p2, p3 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3]
	p4, p5, p6 := t.Cycle[4], t.Cycle[5], t.Cycle[6]
	for {
		for i := 0; i < 28; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
			p5 = *(*unsafe.Pointer)(p5)
			p6 = *(*unsafe.Pointer)(p6)
		}
		atomic.AddUint64(&t.Count, 196)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel8(t *ThreadContext) {
	p0, p1, p2, p3 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3]
	p4, p5, p6, p7 := t.Cycle[4], t.Cycle[5], t.Cycle[6], t.Cycle[7]
	for {
		for i := 0; i < 24; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
			p5 = *(*unsafe.Pointer)(p5)
			p6 = *(*unsafe.Pointer)(p6)
			p7 = *(*unsafe.Pointer)(p7)
		}
		atomic.AddUint64(&t.Count, 192)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel9(t *ThreadContext) {
	p0, p1, p2, p3 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3]
	p4, p5, p6, p7 := t.Cycle[4], t.Cycle[5], t.Cycle[6], t.Cycle[7]
	p8 := t.Cycle[8]
	for {
		for i := 0; i < 22; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
			p5 = *(*unsafe.Pointer)(p5)
			p6 = *(*unsafe.Pointer)(p6)
			p7 = *(*unsafe.Pointer)(p7)
			p8 = *(*unsafe.Pointer)(p8)
		}
		atomic.AddUint64(&t.Count, 198)
	}
}

//go:norace
//go:nocheckptr
func chaseParallel10(t *ThreadContext) {
	p0, p1, p2, p3 := t.Cycle[0], t.Cycle[1], t.Cycle[2], t.Cycle[3]
	p4, p5, p6, p7 := t.Cycle[4], t.Cycle[5], t.Cycle[6], t.Cycle[7]
	p8, p9 := t.Cycle[8], t.Cycle[9]
	for {
		for i := 0; i < 20; i++ {
			p0 = *(*unsafe.Pointer)(p0)
			p1 = *(*unsafe.Pointer)(p1)
			p2 = *(*unsafe.Pointer)(p2)
			p3 = *(*unsafe.Pointer)(p3)
			p4 = *(*unsafe.Pointer)(p4)
			p5 = *(*unsafe.Pointer)(p5)
			p6 = *(*unsafe.Pointer)(p6)
			p7 = *(*unsafe.Pointer)(p7)
			p8 = *(*unsafe.Pointer)(p8)
			p9 = *(*unsafe.Pointer)(p9)
		}
		atomic.AddUint64(&t.Count, 200)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CRITWORD POST-PROCESSING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// LinkCritword rewires a built chase so every logical hop becomes two
// dependent reads: X links to X+offset, which links to the original
// successor. Runs once before the timed loop; the chase remains one cycle.
//
//go:nocheckptr
func LinkCritword(head unsafe.Pointer, offset uintptr) {
	p := head
	for {
		next := *(*unsafe.Pointer)(p)
		*(*unsafe.Pointer)(unsafe.Add(p, offset)) = next
		*(*unsafe.Pointer)(p) = unsafe.Add(p, offset)
		p = next
		if p == head {
			return
		}
	}
}

// LinkCritword2 threads a second parallel chase at X+offset mirroring the
// primary one, for the two-stream critword2 kernel.
//
//go:nocheckptr
func LinkCritword2(head unsafe.Pointer, offset uintptr) {
	p := head
	for {
		next := *(*unsafe.Pointer)(p)
		*(*unsafe.Pointer)(unsafe.Add(p, offset)) = unsafe.Add(next, offset)
		p = next
		if p == head {
			return
		}
	}
}
