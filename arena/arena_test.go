// arena/arena_test.go — allocation rounding and weighted node selection
package arena

import "testing"

func TestAllocRoundsToPageSize(t *testing.T) {
	ps := NativePageSize()
	a := Alloc(Config{}, ps/2+1)
	if a.Size() != ps {
		t.Errorf("size = %d, want one page (%d)", a.Size(), ps)
	}
	b := Alloc(Config{}, ps+1)
	if b.Size() != 2*ps {
		t.Errorf("size = %d, want two pages (%d)", b.Size(), 2*ps)
	}
}

func TestAllocZeroFilled(t *testing.T) {
	a := Alloc(Config{}, NativePageSize())
	for i, v := range a.Bytes() {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestAtAliasesBytes(t *testing.T) {
	a := Alloc(Config{}, NativePageSize())
	*(*byte)(a.At(17)) = 0xaa
	if a.Bytes()[17] != 0xaa {
		t.Error("At(17) does not alias Bytes()[17]")
	}
}

func TestPageSizeIsHuge(t *testing.T) {
	if PageSizeIsHuge(NativePageSize()) {
		t.Error("native page size reported as huge")
	}
	if !PageSizeIsHuge(2 * 1024 * 1024) {
		t.Error("2 MiB not reported as huge")
	}
}

func TestWeightedPickerDisabled(t *testing.T) {
	if p := newWeightedPicker(nil); p != nil {
		t.Error("nil weights should disable the picker")
	}
	if p := newWeightedPicker(make([]uint16, MaxMemNodes)); p != nil {
		t.Error("all-zero weights should disable the picker")
	}
}

func TestWeightedPickerSingleNode(t *testing.T) {
	w := make([]uint16, MaxMemNodes)
	w[3] = 10
	p := newWeightedPicker(w)
	if p == nil {
		t.Fatal("picker disabled with a nonzero weight")
	}
	for i := 0; i < 1000; i++ {
		if n := p.pick(); n != 3 {
			t.Fatalf("draw %d picked node %d, want 3", i, n)
		}
	}
}

func TestWeightedPickerDistribution(t *testing.T) {
	// 0:10,1:90 should land roughly 10%/90%
	w := make([]uint16, MaxMemNodes)
	w[0] = 10
	w[1] = 90
	p := newWeightedPicker(w)

	const draws = 100000
	counts := make([]int, MaxMemNodes)
	for i := 0; i < draws; i++ {
		counts[p.pick()]++
	}
	for n := 2; n < MaxMemNodes; n++ {
		if counts[n] != 0 {
			t.Fatalf("zero-weight node %d drawn %d times", n, counts[n])
		}
	}
	frac1 := float64(counts[1]) / draws
	if frac1 < 0.88 || frac1 > 0.92 {
		t.Errorf("node 1 drawn %.3f of the time, want ~0.90", frac1)
	}
}

func TestWeightedPickerReproducible(t *testing.T) {
	w := make([]uint16, MaxMemNodes)
	w[0] = 1
	w[1] = 1
	a := newWeightedPicker(w)
	b := newWeightedPicker(w)
	for i := 0; i < 1000; i++ {
		if x, y := a.pick(), b.pick(); x != y {
			t.Fatalf("placement stream diverged at draw %d: %d vs %d", i, x, y)
		}
	}
}
