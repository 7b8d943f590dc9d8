// loads.go — bandwidth load kernels.
//
// Every kernel streams over its private load arena in fixed passes and
// reports MiB/s through the shared counter: when the coordinator publishes
// a new sample number and the previous reading has been consumed
// (Count == 0), the kernel converts the bytes moved since its last report
// into MiB/s and adds that in. Unlike the latency walkers these honor
// Stop, checked once per pass, because a load pass has no sub-nanosecond
// timing to protect.

package chase

import (
	"sync/atomic"
	"unsafe"

	"main/timer"
)

// loadSampler carries the per-kernel reporting state: passes since the
// last report and the wall time they started at.
type loadSampler struct {
	t         *ThreadContext
	loadBites uint64 // bytes moved per pass
	loops     uint64
	curSample uint64
	time0     uint64
}

func newLoadSampler(t *ThreadContext, loadBites uint64) loadSampler {
	return loadSampler{
		t:         t,
		loadBites: loadBites,
		curSample: ^uint64(0),
		time0:     timer.NowNsec(),
	}
}

// sample is called once per full pass over the arena.
func (s *loadSampler) sample() {
	s.loops++
	nxt := atomic.LoadUint64(&s.t.SampleNo)
	if nxt != s.curSample && atomic.LoadUint64(&s.t.Count) == 0 {
		dt := float64(timer.NowNsec() - s.time0)
		mibps := (float64(s.loops*s.loadBites) * 1e9) / (dt * 1024 * 1024)
		atomic.AddUint64(&s.t.Count, uint64(mibps))
		s.curSample = nxt
		s.loops = 0
		s.time0 = timer.NowNsec()
	}
}

// loadMemcpy bounces the arena between its two halves. 1:1 read:write.
func loadMemcpy(t *ThreadContext) {
	half := uint64(len(t.LoadArena)) / 2
	a := t.LoadArena[:half]
	b := t.LoadArena[half : 2*half]
	s := newLoadSampler(t, 2*half)
	for {
		a, b = b, a
		copy(a, b)
		s.sample()
		if t.stopping() {
			return
		}
	}
}

// loadMemset overwrites the arena with a non-zero byte. Write-only.
func loadMemset(t *ThreadContext) {
	a := t.LoadArena
	s := newLoadSampler(t, uint64(len(a)))
	for {
		fillBytes(a, 0xef)
		s.sample()
		if t.stopping() {
			return
		}
	}
}

// loadMemsetZero overwrites the arena with zeros, which some allocators
// and kernels special-case.
func loadMemsetZero(t *ThreadContext) {
	a := t.LoadArena
	s := newLoadSampler(t, uint64(len(a)))
	for {
		clear(a)
		s.sample()
		if t.stopping() {
			return
		}
	}
}

// loadStreamCopy is the lmbench stream copy kernel over two double
// buffers, swapped each pass.
func loadStreamCopy(t *ThreadContext) {
	base := unsafe.Pointer(&t.LoadArena[0])
	n := uintptr(len(t.LoadArena)) / 2 / 8
	a := unsafe.Slice((*float64)(base), n)
	b := unsafe.Slice((*float64)(unsafe.Add(base, n*8)), n)
	s := newLoadSampler(t, uint64(n)*8*2)
	for {
		a, b = b, a
		for i := range b {
			b[i] = a[i]
		}
		s.sample()
		if t.stopping() {
			return
		}
	}
}

// loadStreamSum reads the arena as uint64s and sums it. Read-only; the
// running sum lands in Dummy so the pass survives optimization.
func loadStreamSum(t *ThreadContext) {
	base := unsafe.Pointer(&t.LoadArena[0])
	n := uintptr(len(t.LoadArena)) / 8
	a := unsafe.Slice((*uint64)(base), n)
	s := newLoadSampler(t, uint64(n)*8)
	var sum uint64
	for {
		for i := range a {
			sum += a[i]
		}
		s.sample()
		t.Dummy += sum
		if t.stopping() {
			return
		}
	}
}

// loadStreamTriad is the lmbench stream triad over three rotating double
// buffers, each 16-byte aligned for vector stores.
func loadStreamTriad(t *ThreadContext) {
	p := uintptr(unsafe.Pointer(&t.LoadArena[0]))
	aligned := (p + 15) &^ 15
	avail := uintptr(len(t.LoadArena)) - (aligned - p)
	loadLoop := (avail / 3) &^ 15
	n := loadLoop / 8

	base := unsafe.Add(unsafe.Pointer(&t.LoadArena[0]), aligned-p)
	a := unsafe.Slice((*float64)(base), n)
	b := unsafe.Slice((*float64)(unsafe.Add(base, loadLoop)), n)
	c := unsafe.Slice((*float64)(unsafe.Add(base, 2*loadLoop)), n)

	s := newLoadSampler(t, uint64(n)*8*3)
	for {
		a, b, c = b, c, a
		for i := range a {
			a[i] = b[i] + c[i]
		}
		s.sample()
		if t.stopping() {
			return
		}
	}
}

// fillBytes stores v across dst by doubling copies.
func fillBytes(dst []byte, v byte) {
	if len(dst) == 0 {
		return
	}
	dst[0] = v
	for i := 1; i < len(dst); i *= 2 {
		copy(dst[i:], dst[:i])
	}
}
