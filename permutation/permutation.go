// ════════════════════════════════════════════════════════════════════════════════════════════════
// Chase & Permutation Engine
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Pointer-Chase Construction
//
// Description:
//   Builds the cyclic pointer-following sequence each worker walks. The
//   traversal order is a full permutation of the arena's elements, generated
//   per TLB group so successive accesses stay within a bounded working set,
//   then "mixed": the byte offset inside each element that holds the next
//   pointer varies per element and per thread slot, so concurrent walkers do
//   not all hit the same offset of every cache line and no memory bank or
//   prefetcher sees a favored stream.
//
// Invariant:
//   Every generated chase is a single Hamiltonian cycle — following next
//   exactly nr_elements times from any start returns there having visited
//   every element once. Verification is gated behind ChaseConfig.Verify.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package permutation

import (
	"math/bits"
	"unsafe"

	"main/arena"
	"main/debug"
	"main/rng"
	"main/utils"
)

// MinMixers is the floor for the mixer-table width. Even a single-thread run
// gets at least this many mixer permutations so the sub-offset sequence has
// a long enough period to decorrelate from element order.
const MinMixers = 64

// GenFunc fills perm with a permutation of [base, base+len(perm)).
type GenFunc func(r *rng.Source, perm []uint64, base uint64)

// GenRandom produces a uniform random permutation (inside-out Fisher-Yates,
// per Knuth) offset by base.
func GenRandom(r *rng.Source, perm []uint64, base uint64) {
	for i := range perm {
		t := r.Next(uint64(i))
		perm[i] = perm[t]
		perm[t] = base + uint64(i)
	}
}

// GenOrdered produces the identity permutation offset by base.
func GenOrdered(_ *rng.Source, perm []uint64, base uint64) {
	for i := range perm {
		perm[i] = base + uint64(i)
	}
}

// IsAPermutation reports whether perm contains every value in
// [0, len(perm)) exactly once.
func IsAPermutation(perm []uint64) bool {
	n := uint64(len(perm))
	vec := make([]uint8, (n+7)/8)
	for _, v := range perm {
		if v >= n {
			return false
		}
		bit := uint8(1) << (v % 8)
		if vec[v/8]&bit != 0 {
			return false
		}
		vec[v/8] |= bit
	}
	// Every value < n set once implies all bits are set; the scan above
	// already rejected duplicates and out-of-range values.
	return true
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CHASE CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// ChaseConfig carries the shared, read-only inputs for building every chase
// of a run. BuildMixer populates NrMixers and Mixer once on the main thread;
// after that the struct is immutable and workers use it concurrently without
// synchronization.
type ChaseConfig struct {
	Arena  *arena.Arena
	Offset uint64 // chase region starts this many bytes into the arena

	TotalMemory uint64 // chase region size
	Stride      uint64 // element size
	TLBLocality uint64 // grouping span, a multiple of Stride

	NrMixerIndices uint64 // sub-offsets per element: Stride / base object size
	NrMixers       uint64 // mixer-table width, power of two ≥ MinMixers
	Mixer          []uint64

	Gen    GenFunc
	Verify bool // check the permutation invariant during construction
}

// NrElements returns the element count of the chase region.
func (c *ChaseConfig) NrElements() uint64 {
	return c.TotalMemory / c.Stride
}

// at resolves a mixed byte offset through the arena's bounds-checked
// accessor.
//
//go:inline
func (c *ChaseConfig) at(off uint64) unsafe.Pointer {
	return c.Arena.At(c.Offset + off)
}

// mixed maps a logical element index to its physical byte offset: the
// element base plus the mixer-selected sub-offset for this row.
//
//go:inline
func (c *ChaseConfig) mixed(row []uint64, x uint64) uint64 {
	mixerScale := c.Stride / c.NrMixerIndices
	return x*c.Stride + row[x&(c.NrMixers-1)]*mixerScale
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MIXER TABLE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// BuildMixer generates the mixer table: nrMixers independent permutations of
// the per-element sub-offsets, where nrMixers is rounded up to a power of
// two (floor MinMixers). The table is stored transposed — all values for one
// slot index packed together — trading the write pattern here for read
// locality during chase construction.
func (c *ChaseConfig) BuildMixer(nrMixers uint64, r *rng.Source) {
	if nrMixers < MinMixers {
		nrMixers = MinMixers
	}
	c.NrMixers = uint64(1) << bits.Len64(nrMixers-1)
	debug.DropMessage(2, "MIXER", utils.Utoa(c.NrMixers)+" mixers of "+
		utils.Utoa(c.NrMixerIndices)+" indices")

	t := make([]uint64, c.NrMixerIndices)
	table := make([]uint64, c.NrMixerIndices*c.NrMixers)
	for i := uint64(0); i < c.NrMixers; i++ {
		c.Gen(r, t, 0)
		for j := uint64(0); j < c.NrMixerIndices; j++ {
			table[j*c.NrMixers+i] = t[j]
		}
	}
	c.Mixer = table
}

// mixerRow returns the transposed row for one mixer slot.
func (c *ChaseConfig) mixerRow(slot uint64) []uint64 {
	return c.Mixer[slot*c.NrMixers : (slot+1)*c.NrMixers]
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// CHASE GENERATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// generatePermutation builds one full-arena traversal order: a permutation
// over TLB groups, then an independent permutation inside each group with
// values offset by the group's permuted base. The result is a permutation of
// [base, base+nrElts) that crosses a group boundary only once per group.
func (c *ChaseConfig) generatePermutation(r *rng.Source, base uint64) []uint64 {
	nrTLBGroups := c.TotalMemory / c.TLBLocality
	nrEltsPerTLB := c.TLBLocality / c.Stride
	nrElts := c.NrElements()

	debug.DropMessage(2, "CHASE", "generating permutation of "+utils.Utoa(nrElts)+
		" elements in "+utils.Utoa(nrTLBGroups)+" TLB groups")

	tlbPerm := make([]uint64, nrTLBGroups)
	c.Gen(r, tlbPerm, 0)

	perm := make([]uint64, nrElts)
	for i := uint64(0); i < nrTLBGroups; i++ {
		c.Gen(r, perm[i*nrEltsPerTLB:(i+1)*nrEltsPerTLB], base+tlbPerm[i]*nrEltsPerTLB)
	}
	return perm
}

// GenerateChase threads a cyclic chase through the arena for one mixer slot
// and returns its first pointer. Element perm[i] links to perm[i+1], and the
// last links back to the first, so the walk is one cycle over all elements.
func (c *ChaseConfig) GenerateChase(r *rng.Source, mixerIdx uint64) unsafe.Pointer {
	nrElts := c.NrElements()
	perm := c.generatePermutation(r, 0)

	if c.Verify && !IsAPermutation(perm) {
		debug.Fatal("CHASE", "generated traversal order is not a permutation")
	}

	row := c.mixerRow(mixerIdx)
	for i := uint64(0); i < nrElts; i++ {
		next := i + 1
		if next == nrElts {
			next = 0
		}
		*(*unsafe.Pointer)(c.at(c.mixed(row, perm[i]))) = c.at(c.mixed(row, perm[next]))
	}
	return c.at(c.mixed(row, 0))
}

// GenerateChaseLong stitches nr_mixer_indices/totalPar independently
// generated permutations end to end for one slot, switching to the next
// permutation's mixer row only at period boundaries. The longer period,
// spanning several mixer rows, defeats stream detectors that can learn a
// single-permutation cycle.
func (c *ChaseConfig) GenerateChaseLong(r *rng.Source, mixerIdx, totalPar uint64) unsafe.Pointer {
	nrElts := c.NrElements()
	nrIteration := c.NrMixerIndices / totalPar
	rowBase := mixerIdx * nrIteration

	perm := make([]uint64, nrIteration*nrElts)
	for j := uint64(0); j < nrIteration; j++ {
		copy(perm[j*nrElts:(j+1)*nrElts], c.generatePermutation(r, j*nrElts))
	}
	if c.Verify && !IsAPermutation(perm) {
		debug.Fatal("CHASE", "stitched traversal order is not a permutation")
	}

	cur := uint64(0)
	total := nrIteration * nrElts
	for i := uint64(0); i < nrIteration; i++ {
		for j := uint64(0); j < nrElts; j++ {
			next := cur + 1
			if next == total {
				next = 0
			}
			// The mixer row advances only when a permutation ends; the
			// final element of the last permutation closes the cycle back
			// to row 0.
			iNext := i
			if j+1 == nrElts {
				if next == 0 {
					iNext = 0
				} else {
					iNext = i + 1
				}
			}
			src := c.mixed(c.mixerRow(rowBase+i), perm[cur]%nrElts)
			dst := c.mixed(c.mixerRow(rowBase+iNext), perm[next]%nrElts)
			*(*unsafe.Pointer)(c.at(src)) = c.at(dst)
			cur++
		}
	}
	return c.at(c.mixed(c.mixerRow(rowBase), 0))
}
