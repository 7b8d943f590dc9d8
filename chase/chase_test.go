// chase/chase_test.go — registry, context layout, and relink tests
package chase

import (
	"sync/atomic"
	"testing"
	"time"
	"unsafe"
)

func TestContextPadding(t *testing.T) {
	if s := unsafe.Sizeof(ThreadContext{}); s%AvoidFalseSharing != 0 {
		t.Fatalf("ThreadContext size %d is not a multiple of %d", s, AvoidFalseSharing)
	}
	var pair [2]ThreadContext
	d := uintptr(unsafe.Pointer(&pair[1])) - uintptr(unsafe.Pointer(&pair[0]))
	if d != AvoidFalseSharing {
		t.Fatalf("adjacent contexts %d bytes apart, want %d", d, AvoidFalseSharing)
	}
}

func TestCounterDiscipline(t *testing.T) {
	var tc ThreadContext
	atomic.AddUint64(&tc.Count, 200)
	atomic.AddUint64(&tc.Count, 50)
	if got := tc.TakeCount(); got != 250 {
		t.Fatalf("TakeCount = %d, want 250", got)
	}
	if got := tc.TakeCount(); got != 0 {
		t.Fatalf("TakeCount after swap = %d, want 0", got)
	}
}

func TestStopSignal(t *testing.T) {
	var tc ThreadContext
	if tc.stopping() {
		t.Fatal("fresh context reports stopping")
	}
	tc.SignalStop()
	if !tc.stopping() {
		t.Fatal("SignalStop not observed")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func TestDefaultsAreFirst(t *testing.T) {
	if Chases[0].Name != "simple" {
		t.Errorf("default chase is %q, want simple", Chases[0].Name)
	}
	if Memloads[0].Name != "memcpy-libc" {
		t.Errorf("default memload is %q, want memcpy-libc", Memloads[0].Name)
	}
}

func TestFindChase(t *testing.T) {
	for _, name := range []string{"simple", "work", "incr", "chaseload", "critword", "critword2", "parallel2", "parallel10"} {
		c, ok := FindChase(name)
		if !ok {
			t.Errorf("FindChase(%q) missing", name)
			continue
		}
		if c.Name != name {
			t.Errorf("FindChase(%q) returned %q", name, c.Name)
		}
		if c.Fn == nil {
			t.Errorf("chase %q has no kernel", name)
		}
	}
	if _, ok := FindChase("nope"); ok {
		t.Error("FindChase accepted an unknown name")
	}
}

func TestRegistryShape(t *testing.T) {
	for i := range Chases {
		c := &Chases[i]
		if c.Parallelism == 0 || c.Parallelism > MaxParallel {
			t.Errorf("chase %q parallelism %d out of range", c.Name, c.Parallelism)
		}
		if c.BaseObjectSize < uint64(unsafe.Sizeof(uintptr(0))) {
			t.Errorf("chase %q base object smaller than a pointer", c.Name)
		}
	}
	for i := range Memloads {
		l := &Memloads[i]
		if l.Parallelism != 0 {
			t.Errorf("memload %q has chase parallelism %d", l.Name, l.Parallelism)
		}
		if l.RequiresArg {
			t.Errorf("memload %q unexpectedly requires an argument", l.Name)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CRITWORD RELINKING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// buildCycle links nrElts elements of eltSize bytes in order inside buf and
// returns the head. buf must stay referenced by the caller.
func buildCycle(buf []byte, nrElts, eltSize int) unsafe.Pointer {
	base := unsafe.Pointer(&buf[0])
	for i := 0; i < nrElts; i++ {
		next := (i + 1) % nrElts
		*(*unsafe.Pointer)(unsafe.Add(base, i*eltSize)) = unsafe.Add(base, next*eltSize)
	}
	return base
}

func TestLinkCritword(t *testing.T) {
	const nrElts, eltSize, offset = 4, 64, 16
	buf := make([]byte, nrElts*eltSize)
	head := buildCycle(buf, nrElts, eltSize)

	LinkCritword(head, offset)

	// each original hop is now two: element -> element+offset -> successor
	base := uintptr(head)
	p := head
	for i := 0; i < nrElts; i++ {
		mid := *(*unsafe.Pointer)(p)
		if uintptr(mid) != uintptr(p)+offset {
			t.Fatalf("element %d does not hop to its critword first", i)
		}
		p = *(*unsafe.Pointer)(mid)
		want := base + uintptr(((i+1)%nrElts)*eltSize)
		if uintptr(p) != want {
			t.Fatalf("element %d critword does not hop to the successor", i)
		}
	}
	if p != head {
		t.Fatal("relinked chase is not a cycle")
	}
}

func TestLinkCritword2(t *testing.T) {
	const nrElts, eltSize, offset = 4, 64, 16
	buf := make([]byte, nrElts*eltSize)
	head := buildCycle(buf, nrElts, eltSize)

	LinkCritword2(head, offset)

	// the secondary stream at +offset mirrors the primary one
	p := head
	q := unsafe.Add(head, offset)
	for i := 0; i < nrElts; i++ {
		pn := *(*unsafe.Pointer)(p)
		qn := *(*unsafe.Pointer)(q)
		if uintptr(qn) != uintptr(pn)+offset {
			t.Fatalf("step %d: secondary stream diverged from primary", i)
		}
		p, q = pn, qn
	}
	if p != head {
		t.Fatal("primary stream is not a cycle")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// LOAD KERNELS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func TestFillBytes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 1000} {
		buf := make([]byte, n)
		fillBytes(buf, 0xef)
		for i, v := range buf {
			if v != 0xef {
				t.Fatalf("len %d: byte %d = %#x", n, i, v)
			}
		}
	}
}

// runLoad drives one kernel through a full sample handshake and returns the
// published MiB/s figure.
func runLoad(t *testing.T, fn Fn, arenaSize int) uint64 {
	t.Helper()
	tc := new(ThreadContext)
	tc.LoadArena = make([]byte, arenaSize)
	done := make(chan struct{})
	go func() {
		fn(tc)
		close(done)
	}()

	// let a few passes land, then request a sample
	time.Sleep(20 * time.Millisecond)
	tc.TakeCount() // consume the initial publication
	tc.PublishSample(1)

	deadline := time.Now().Add(5 * time.Second)
	var got uint64
	for got == 0 {
		if time.Now().After(deadline) {
			t.Fatal("kernel never published a sample")
		}
		time.Sleep(time.Millisecond)
		got = tc.TakeCount()
	}

	tc.SignalStop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("kernel did not honor stop")
	}
	return got
}

func TestLoadKernels(t *testing.T) {
	for i := range Memloads {
		l := &Memloads[i]
		t.Run(l.Name, func(t *testing.T) {
			if mibps := runLoad(t, l.Fn, 1<<16); mibps == 0 {
				t.Error("published zero bandwidth")
			}
		})
	}
}

func TestLoadMemsetPatterns(t *testing.T) {
	tc := new(ThreadContext)
	tc.LoadArena = make([]byte, 4096)
	tc.SignalStop()
	// a stopped kernel still runs one full pass before checking
	loadMemset(tc)
	for i, v := range tc.LoadArena {
		if v != 0xef {
			t.Fatalf("memset byte %d = %#x", i, v)
		}
	}
	tc2 := new(ThreadContext)
	tc2.LoadArena = tc.LoadArena
	tc2.SignalStop()
	loadMemsetZero(tc2)
	for i, v := range tc2.LoadArena {
		if v != 0 {
			t.Fatalf("memsetz byte %d = %#x", i, v)
		}
	}
}
