// ════════════════════════════════════════════════════════════════════════════════════════════════
// Sample Statistics
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Result Aggregation
//
// Description:
//   Folds the per-sample counter sweeps into the final figures. Latency
//   samples carry the wall-time delta and the summed dereference count of
//   all chase threads; each becomes t = delta/count ns per access, and the
//   summary scales best/worst/avg/geo by the chase thread count so the
//   figure reads as per-thread latency under full concurrency. Bandwidth
//   samples are already MiB/s totals and only need min/max/avg.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package stats

import (
	"math"
	"unsafe"
)

// Summary is the digested result of a run. Latency figures are ns per
// access scaled by the chase thread count; zero when no chase ran.
// Bandwidth figures are MiB/s totals across load threads; zero when no
// load ran. Deviation is (worst-best)/avg in both domains.
type Summary struct {
	Samples      uint    `json:"samples"`
	ChaseThreads uint    `json:"chase_threads"`
	LoadThreads  uint    `json:"load_threads"`
	LatencyBest  float64 `json:"latency_best_ns,omitempty"`
	LatencyWorst float64 `json:"latency_worst_ns,omitempty"`
	LatencyAvg   float64 `json:"latency_avg_ns,omitempty"`
	LatencyGeo   float64 `json:"latency_geo_ns,omitempty"`
	LatencyDev   float64 `json:"latency_deviation,omitempty"`
	LoadMinMibs  float64 `json:"load_min_mibps,omitempty"`
	LoadMaxMibs  float64 `json:"load_max_mibps,omitempty"`
	LoadAvgMibs  float64 `json:"load_avg_mibps,omitempty"`
	LoadDev      float64 `json:"load_deviation,omitempty"`
}

// Accumulator folds samples as the coordinator sweeps them. The first
// (warmup) sample must not be fed in; the coordinator discards it.
type Accumulator struct {
	chaseThreads uint
	loadThreads  uint

	chaseSamples uint
	chaseMin     float64
	chaseMax     float64
	chaseSum     float64
	chaseGeoSum  float64

	loadSamples uint
	loadMin     float64
	loadMax     float64
	loadSum     float64
}

func NewAccumulator(chaseThreads, loadThreads uint) *Accumulator {
	return &Accumulator{
		chaseThreads: chaseThreads,
		loadThreads:  loadThreads,
		chaseMin:     math.Inf(1),
		loadMin:      math.Inf(1),
	}
}

// AddChase records one latency sample: timeDelta ns of wall time over
// chaseOps dereferences summed across all chase threads.
func (a *Accumulator) AddChase(timeDelta, chaseOps uint64) {
	if chaseOps == 0 {
		return
	}
	t := float64(timeDelta) / float64(chaseOps)
	a.chaseSum += t
	a.chaseGeoSum += math.Log(t)
	if t < a.chaseMin {
		a.chaseMin = t
	}
	if t > a.chaseMax {
		a.chaseMax = t
	}
	a.chaseSamples++
}

// AddLoad records one bandwidth sample: the MiB/s totals of all load
// threads, summed.
func (a *Accumulator) AddLoad(totalMibps float64) {
	if totalMibps == 0 {
		return
	}
	a.loadSum += totalMibps
	if totalMibps > a.loadMax {
		a.loadMax = totalMibps
	}
	if totalMibps < a.loadMin {
		a.loadMin = totalMibps
	}
	a.loadSamples++
}

// PerSampleLatency converts one sample to the reported scale without
// folding it in. Used for the per-sample verbose rows.
func (a *Accumulator) PerSampleLatency(timeDelta, chaseOps uint64) float64 {
	if chaseOps == 0 {
		return 0
	}
	return float64(timeDelta) / float64(chaseOps) * float64(a.chaseThreads)
}

// Summarize digests everything folded in so far.
func (a *Accumulator) Summarize() Summary {
	s := Summary{
		ChaseThreads: a.chaseThreads,
		LoadThreads:  a.loadThreads,
	}
	if a.chaseSamples > 0 {
		n := float64(a.chaseSamples)
		scale := float64(a.chaseThreads)
		s.Samples = a.chaseSamples
		s.LatencyBest = a.chaseMin * scale
		s.LatencyWorst = a.chaseMax * scale
		s.LatencyAvg = a.chaseSum * scale / n
		s.LatencyGeo = scale * math.Exp(a.chaseGeoSum/n)
		s.LatencyDev = (s.LatencyWorst - s.LatencyBest) / s.LatencyAvg
	}
	if a.loadSamples > 0 {
		n := float64(a.loadSamples)
		if a.loadSamples > s.Samples {
			s.Samples = a.loadSamples
		}
		s.LoadMinMibs = a.loadMin
		s.LoadMaxMibs = a.loadMax
		s.LoadAvgMibs = a.loadSum / n
		s.LoadDev = (a.loadMax - a.loadMin) / s.LoadAvgMibs
	}
	return s
}

// MibsForLatency converts a per-access latency figure into the aggregate
// pointer-fetch bandwidth it implies across the chase threads.
func MibsForLatency(ns float64, chaseThreads uint) float64 {
	if ns == 0 {
		return 0
	}
	bytesPerSec := float64(unsafe.Sizeof(uintptr(0))) / (ns / 1e9)
	return float64(chaseThreads) * bytesPerSec / (1024 * 1024)
}
