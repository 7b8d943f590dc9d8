// ════════════════════════════════════════════════════════════════════════════════════════════════
// Reproducible Random Number Source
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Per-Thread Deterministic RNG
//
// Description:
//   Each worker owns one Source seeded by its thread index, so permutation
//   construction is reproducible run-to-run and thread-to-thread without any
//   shared state. The stream is an xorshift64* generator whose state is
//   expanded from the seed through a splitmix64-style avalanche, which keeps
//   small consecutive seeds (0, 1, 2, ...) from producing correlated streams.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package rng

import "main/utils"

// Source is a deterministic 64-bit generator. Not safe for concurrent use;
// every thread context owns exactly one.
type Source struct {
	state uint64
}

// New returns a Source for the given seed (typically the thread index).
func New(seed uint64) *Source {
	s := utils.Mix64(seed + 0x9e3779b97f4a7c15)
	if s == 0 {
		// xorshift state must never be zero or the stream degenerates.
		s = 0x9e3779b97f4a7c15
	}
	return &Source{state: s}
}

// next64 advances the xorshift64* stream.
//
//go:inline
func (s *Source) next64() uint64 {
	x := s.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.state = x
	return x * 0x2545f4914f6cdd1d
}

// Next returns a uniform value in [0, limit], inclusive, mirroring the
// original rng_int contract used by the permutation generator.
//
//go:inline
func (s *Source) Next(limit uint64) uint64 {
	if limit == ^uint64(0) {
		return s.next64()
	}
	return s.next64() % (limit + 1)
}
