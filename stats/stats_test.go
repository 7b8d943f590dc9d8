// stats/stats_test.go — aggregation math on hand-checked samples
package stats

import (
	"math"
	"testing"
)

func TestLatencySummary(t *testing.T) {
	// three samples of 1e9 ns over 1e7 / 2e7 / 4e7 derefs:
	// t = 100, 50, 25 ns per access, 2 chase threads
	a := NewAccumulator(2, 0)
	a.AddChase(1e9, 1e7)
	a.AddChase(1e9, 2e7)
	a.AddChase(1e9, 4e7)
	s := a.Summarize()

	if s.Samples != 3 {
		t.Errorf("samples = %d, want 3", s.Samples)
	}
	if s.LatencyBest != 25*2 {
		t.Errorf("best = %v, want 50", s.LatencyBest)
	}
	if s.LatencyWorst != 100*2 {
		t.Errorf("worst = %v, want 200", s.LatencyWorst)
	}
	wantAvg := (100.0 + 50.0 + 25.0) / 3 * 2
	if math.Abs(s.LatencyAvg-wantAvg) > 1e-9 {
		t.Errorf("avg = %v, want %v", s.LatencyAvg, wantAvg)
	}
	// geometric mean of 100, 50, 25 is 50
	if math.Abs(s.LatencyGeo-50*2) > 1e-9 {
		t.Errorf("geo = %v, want 100", s.LatencyGeo)
	}
	wantDev := (s.LatencyWorst - s.LatencyBest) / s.LatencyAvg
	if math.Abs(s.LatencyDev-wantDev) > 1e-12 {
		t.Errorf("deviation = %v, want %v", s.LatencyDev, wantDev)
	}
}

func TestLoadSummary(t *testing.T) {
	a := NewAccumulator(0, 4)
	a.AddLoad(1000)
	a.AddLoad(3000)
	a.AddLoad(2000)
	s := a.Summarize()

	if s.LoadMinMibs != 1000 || s.LoadMaxMibs != 3000 {
		t.Errorf("min/max = %v/%v, want 1000/3000", s.LoadMinMibs, s.LoadMaxMibs)
	}
	if s.LoadAvgMibs != 2000 {
		t.Errorf("avg = %v, want 2000", s.LoadAvgMibs)
	}
	if s.LoadDev != 1.0 {
		t.Errorf("deviation = %v, want 1.0", s.LoadDev)
	}
	if s.LatencyBest != 0 {
		t.Errorf("latency figures should stay zero without chase samples")
	}
}

func TestZeroSamplesIgnored(t *testing.T) {
	a := NewAccumulator(1, 1)
	a.AddChase(1e9, 0) // a sweep with no progress carries no information
	a.AddLoad(0)
	s := a.Summarize()
	if s.Samples != 0 {
		t.Errorf("samples = %d, want 0", s.Samples)
	}
}

func TestPerSampleLatency(t *testing.T) {
	a := NewAccumulator(4, 0)
	if got := a.PerSampleLatency(1e9, 1e7); got != 400 {
		t.Errorf("per-sample latency = %v, want 400", got)
	}
	if got := a.PerSampleLatency(1e9, 0); got != 0 {
		t.Errorf("per-sample latency with no progress = %v, want 0", got)
	}
}

func TestMibsForLatency(t *testing.T) {
	// 8 bytes every 200 ns is 4e7 B/s, times 2 threads
	want := 2 * 4e7 / (1024 * 1024)
	if got := MibsForLatency(200, 2); math.Abs(got-want) > 1e-9 {
		t.Errorf("MibsForLatency = %v, want %v", got, want)
	}
	if MibsForLatency(0, 2) != 0 {
		t.Error("zero latency must not divide")
	}
}
