// ════════════════════════════════════════════════════════════════════════════════════════════════
// Per-Thread Worker State
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Thread Context & Counter Discipline
//
// Description:
//   One ThreadContext per worker, padded to the false-sharing boundary so no
//   two workers' counters share a cache line. The counter is the only field
//   with cross-thread traffic: the worker fetch-adds it, the harness swaps
//   it to zero each sample. Single-producer/single-consumer atomics, never a
//   lock — a blocked walker would pollute the latency being measured.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package chase

import (
	"sync/atomic"
	"unsafe"
)

const (
	// MaxParallel caps the independent chase heads one thread drives.
	MaxParallel = 10

	// AvoidFalseSharing pads per-thread state; 1024 bytes is assumed good
	// enough alignment to avoid false sharing on all architectures.
	AvoidFalseSharing = 1024

	// CacheLineSize is the assumed coherence granule.
	CacheLineSize = 64
)

// threadState holds the live fields; ThreadContext pads it out.
type threadState struct {
	// Count is written by the owning worker (fetch-add per batch) and
	// read-and-cleared by the harness (atomic swap). Keep first for
	// 8-byte alignment on every platform.
	Count uint64

	// SampleNo is published by the harness; bandwidth workers fold one
	// MiB/s figure into Count per published sample.
	SampleNo uint64

	// Stop is checked once per pass by bandwidth workers. Latency walkers
	// never check it: they spin until process teardown, since any branch
	// on foreign state would sit inside the measured loop.
	Stop uint32
	_    uint32

	// ThreadNum is the worker's index and its RNG seed.
	ThreadNum int

	// Cycle holds the first pointer of each parallel chase head.
	Cycle [MaxParallel]unsafe.Pointer

	// ExtraArg carries the trailing numeric argument of work:N and
	// critword:N style strategies.
	ExtraArg uint64

	// LoadArena is the private bandwidth buffer (bandwidth workers only).
	LoadArena []byte

	// Dummy receives otherwise-dead accumulator values so the compiler
	// cannot elide the work being measured.
	Dummy uint64
}

// ThreadContext is a worker's complete state, padded to the false-sharing
// boundary.
type ThreadContext struct {
	threadState
	_ [AvoidFalseSharing - unsafe.Sizeof(threadState{})%AvoidFalseSharing]byte
}

// Compile-time layout assertions: exactly one padding unit, no drift.
var _ [AvoidFalseSharing - unsafe.Sizeof(ThreadContext{})]byte
var _ [unsafe.Sizeof(ThreadContext{}) - AvoidFalseSharing]byte

// TakeCount atomically reads and clears the progress counter.
//
//go:inline
func (t *ThreadContext) TakeCount() uint64 {
	return atomic.SwapUint64(&t.Count, 0)
}

// PublishSample announces a new sample sequence number to the worker.
//
//go:inline
func (t *ThreadContext) PublishSample(n uint64) {
	atomic.StoreUint64(&t.SampleNo, n)
}

// SignalStop asks a bandwidth worker to exit after its current pass.
//
//go:inline
func (t *ThreadContext) SignalStop() {
	atomic.StoreUint32(&t.Stop, 1)
}

// stopping is polled by bandwidth workers once per pass.
//
//go:inline
func (t *ThreadContext) stopping() bool {
	return atomic.LoadUint32(&t.Stop) != 0
}
