// ════════════════════════════════════════════════════════════════════════════════════════════════
// Run Configuration
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Option Parsing & Sanitization
//
// Description:
//   Holds everything a run needs: geometry (memory, stride, TLB locality,
//   offset), placement (page size, THP, NUMA weights), strategy selection,
//   and reporting switches. Parsing is strict and happens before any
//   resource is acquired; sanitization applies the rounding rules the
//   chase generator depends on, so downstream code never re-validates.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"main/arena"
	"main/chase"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// DEFAULTS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

const (
	DefTotalMemory    = 256 * 1024 * 1024
	DefStride         = 256
	DefNrSamples      = 5
	DefNrThreads      = 1
	DefCacheFlush     = 64 * 1024 * 1024
	DefOffset         = 0
	DefSampleInterval = 500 * time.Millisecond
)

// DefTLBLocality is expressed in pages of the backing page size.
const DefTLBLocality = 64

// RunMode selects what the worker threads do.
type RunMode uint8

const (
	ModeLatency RunMode = iota // every thread chases
	ModeBandwidth              // every thread runs the memory load
	ModeLoaded                 // thread 0 chases, the rest run the load
)

func (m RunMode) String() string {
	switch m {
	case ModeBandwidth:
		return "bandwidth"
	case ModeLoaded:
		return "loaded-latency"
	default:
		return "latency"
	}
}

// Config is a fully parsed and sanitized run description.
type Config struct {
	TotalMemory    uint64
	Stride         uint64
	TLBLocality    uint64
	Offset         uint64
	CacheFlushSize uint64

	PageSize uint64
	UseTHP   bool
	Weights  []uint16

	NrThreads      uint
	NrSamples      uint64 // 0 = run until killed
	SampleInterval time.Duration

	Mode      RunMode
	Chase     *chase.Chase
	ChaseName string // as given, including any :arg
	ChaseArg  uint64
	Load      *chase.Chase
	LoadName  string

	Ordered        bool
	SetAffinity    bool
	PrintAverage   bool
	PrintTimestamp bool
	Verbosity      int

	JSONOut bool
	DBPath  string
}

// Default returns the baseline configuration before flags are applied.
func Default() *Config {
	return &Config{
		TotalMemory:    DefTotalMemory,
		Stride:         DefStride,
		TLBLocality:    DefTLBLocality * arena.NativePageSize(),
		Offset:         DefOffset,
		CacheFlushSize: DefCacheFlush,
		PageSize:       arena.NativePageSize(),
		NrThreads:      DefNrThreads,
		NrSamples:      DefNrSamples,
		SampleInterval: DefSampleInterval,
		Chase:          &chase.Chases[0],
		ChaseName:      chase.Chases[0].Name,
		Load:           &chase.Memloads[0],
		LoadName:       chase.Memloads[0].Name,
		SetAffinity:    true,
	}
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// ARGUMENT PARSING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// ParseMemArg parses a byte count with an optional k/m/g suffix. The
// numeric part accepts decimal, octal, and 0x hex.
func ParseMemArg(s string) (uint64, error) {
	if s == "" {
		return 0, errors.New("empty size argument")
	}
	mult := uint64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return v * mult, nil
}

// ParseWeights parses a "node:weight,..." list into a dense weight table
// indexed by node id.
func ParseWeights(s string) ([]uint16, error) {
	weights := make([]uint16, arena.MaxMemNodes)
	for _, tok := range strings.Split(s, ",") {
		node, weight, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, fmt.Errorf("expecting node_id:weight, got %q", tok)
		}
		n, err := strconv.ParseUint(node, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad node id %q: %w", node, err)
		}
		if n >= arena.MaxMemNodes {
			return nil, fmt.Errorf("maximum node_id is %d", arena.MaxMemNodes-1)
		}
		w, err := strconv.ParseUint(weight, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad weight %q: %w", weight, err)
		}
		weights[n] = uint16(w)
	}
	return weights, nil
}

// SelectChase resolves a "-c name[:arg]" selection. Picking chaseload
// switches the run to loaded latency; any other chase after a memory load
// was chosen is a conflict.
func (c *Config) SelectChase(sel string) error {
	c.ChaseName = sel
	name, arg, hasArg := strings.Cut(sel, ":")
	ch, ok := chase.FindChase(name)
	if !ok {
		return fmt.Errorf("not a recognized chase name: %s", name)
	}
	c.Chase = ch
	if name == "chaseload" {
		c.Mode = ModeLoaded
		return nil
	}
	if c.Mode == ModeBandwidth {
		return errors.New("with a memory load, the only valid chase selection is chaseload")
	}
	if ch.RequiresArg {
		if !hasArg || arg == "" {
			return fmt.Errorf("chase %s requires an argument: %s  %s", name, ch.Usage1, ch.Usage2)
		}
		v, err := ParseMemArg(arg)
		if err != nil {
			return fmt.Errorf("bad argument for chase %s: %w", name, err)
		}
		c.ChaseArg = v
	} else if hasArg {
		return fmt.Errorf("chase %s does not take an argument", name)
	}
	return nil
}

// SelectLoad resolves a "-l name" selection. Without a prior chaseload
// pick this switches the run to bandwidth only.
func (c *Config) SelectLoad(sel string) error {
	c.LoadName = sel
	name, _, hasArg := strings.Cut(sel, ":")
	ld, ok := chase.FindLoad(name)
	if !ok {
		return fmt.Errorf("not a recognized memload name: %s", name)
	}
	if hasArg {
		return fmt.Errorf("memload %s does not take an argument", name)
	}
	c.Load = ld
	if c.Mode != ModeLoaded {
		c.Mode = ModeBandwidth
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SANITIZATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Sanitize applies the rounding rules the permutation generator assumes:
// TLB locality becomes a stride multiple, total memory a TLB-locality
// multiple. Call after all flags are applied and before Validate.
func (c *Config) Sanitize() {
	if c.TLBLocality < c.Stride {
		c.TLBLocality = c.Stride
	} else {
		c.TLBLocality -= c.TLBLocality % c.Stride
	}

	if c.TotalMemory < c.TLBLocality {
		if c.TotalMemory < c.Stride {
			c.TotalMemory = c.Stride
		} else {
			c.TotalMemory -= c.TotalMemory % c.Stride
		}
		c.TLBLocality = c.TotalMemory
	} else {
		c.TotalMemory -= c.TotalMemory % c.TLBLocality
	}
}

// NrMixerIndices is the number of interleaved sub-chases a stride can
// host for the selected strategy.
func (c *Config) NrMixerIndices() uint64 {
	return c.Stride / c.Chase.BaseObjectSize
}

// Validate rejects geometry the selected strategy cannot run with.
func (c *Config) Validate() error {
	ptrSize := uint64(8)
	if c.Stride < ptrSize {
		return fmt.Errorf("stride must be at least %d", ptrSize)
	}
	if c.Stride < c.Chase.BaseObjectSize {
		return fmt.Errorf("chase %s needs a stride of at least %d bytes",
			c.Chase.Name, c.Chase.BaseObjectSize)
	}
	if c.NrThreads == 0 {
		return errors.New("nr_threads must be a positive integer")
	}
	if c.PageSize != 0 && c.PageSize&(c.PageSize-1) != 0 {
		return errors.New("page size must be a power of two")
	}
	if c.Mode == ModeLatency &&
		c.NrMixerIndices() < uint64(c.NrThreads)*uint64(c.Chase.Parallelism) {
		return fmt.Errorf(
			"the stride is too small to interleave that many threads, need at least %d bytes",
			uint64(c.NrThreads)*uint64(c.Chase.Parallelism)*c.Chase.BaseObjectSize)
	}
	if c.Mode == ModeLoaded && c.NrThreads < 2 {
		return errors.New("loaded latency needs at least 2 threads (1 chase + 1 load)")
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// PROFILES
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// profile mirrors the flag surface for JSON-driven runs. Only fields
// present in the file override the baseline.
type profile struct {
	TotalMemory    *string `json:"total_memory"`
	Stride         *string `json:"stride"`
	TLBLocality    *string `json:"tlb_locality"`
	Offset         *string `json:"offset"`
	CacheFlush     *string `json:"cache_flush"`
	PageSize       *string `json:"page_size"`
	UseTHP         *bool   `json:"use_thp"`
	Weights        *string `json:"mbind_weights"`
	Threads        *uint   `json:"threads"`
	Samples        *uint64 `json:"samples"`
	IntervalMs     *uint64 `json:"sample_interval_ms"`
	Chase          *string `json:"chase"`
	Load           *string `json:"memload"`
	Ordered        *bool   `json:"ordered"`
	SetAffinity    *bool   `json:"set_affinity"`
	PrintAverage   *bool   `json:"print_average"`
	PrintTimestamp *bool   `json:"print_timestamp"`
}

// ApplyProfile layers a JSON profile file over the configuration.
func (c *Config) ApplyProfile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	var p profile
	if err := sonnet.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}

	type memField struct {
		src *string
		dst *uint64
	}
	for _, f := range []memField{
		{p.TotalMemory, &c.TotalMemory},
		{p.Stride, &c.Stride},
		{p.TLBLocality, &c.TLBLocality},
		{p.Offset, &c.Offset},
		{p.CacheFlush, &c.CacheFlushSize},
		{p.PageSize, &c.PageSize},
	} {
		if f.src == nil {
			continue
		}
		v, err := ParseMemArg(*f.src)
		if err != nil {
			return fmt.Errorf("profile %s: %w", path, err)
		}
		*f.dst = v
	}

	if p.UseTHP != nil {
		c.UseTHP = *p.UseTHP
	}
	if p.Weights != nil {
		w, err := ParseWeights(*p.Weights)
		if err != nil {
			return fmt.Errorf("profile %s: %w", path, err)
		}
		c.Weights = w
	}
	if p.Threads != nil {
		c.NrThreads = *p.Threads
	}
	if p.Samples != nil {
		c.NrSamples = *p.Samples
	}
	if p.IntervalMs != nil {
		c.SampleInterval = time.Duration(*p.IntervalMs) * time.Millisecond
	}
	if p.Chase != nil {
		if err := c.SelectChase(*p.Chase); err != nil {
			return fmt.Errorf("profile %s: %w", path, err)
		}
	}
	if p.Load != nil {
		if err := c.SelectLoad(*p.Load); err != nil {
			return fmt.Errorf("profile %s: %w", path, err)
		}
	}
	if p.Ordered != nil {
		c.Ordered = *p.Ordered
	}
	if p.SetAffinity != nil {
		c.SetAffinity = *p.SetAffinity
	}
	if p.PrintAverage != nil {
		c.PrintAverage = *p.PrintAverage
	}
	if p.PrintTimestamp != nil {
		c.PrintTimestamp = *p.PrintTimestamp
	}
	return nil
}
