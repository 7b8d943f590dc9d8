// ════════════════════════════════════════════════════════════════════════════════════════════════
// Measurement Harness
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Worker Coordination & Sampling
//
// Description:
//   Owns the run: allocates the chase arena and per-worker state, launches
//   one pinned OS thread per worker, generates each worker's chases behind
//   a startup barrier, then sweeps the progress counters on a fixed period
//   and folds the sweeps into the result statistics.
//
//   Counter discipline: workers fetch-add, the harness swap-reads to zero.
//   The wall-time delta for a latency sample is taken the moment the last
//   chase thread's counter has been read, so scheduler noise on the load
//   threads cannot stretch the denominator. The first sample is always
//   discarded — one thread likely still had chase portions in cache.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package harness

import (
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"main/affinity"
	"main/arena"
	"main/chase"
	"main/config"
	"main/debug"
	"main/permutation"
	"main/rng"
	"main/stats"
	"main/timer"
	"main/utils"
)

// samplePoll is how long the sweep waits between checks for a load thread
// that has not published its MiB/s figure yet.
const samplePoll = 10 * time.Millisecond

// Sample is one accepted counter sweep, exposed to the observer for
// per-sample reporting.
type Sample struct {
	No        uint64
	TimeDelta uint64    // ns, measured at the last chase-thread read
	ChaseOps  uint64    // dereferences summed over chase threads
	LoadMibs  float64   // MiB/s summed over load threads
	PerThread []float64 // raw per-thread counter values, thread order
}

// Runner executes one configured measurement run.
type Runner struct {
	cfg      *config.Config
	chaseCfg *permutation.ChaseConfig

	ctxArena *arena.Arena
	threads  []chase.ThreadContext
	flush    []byte

	// loadArenas pins each load worker's arena: the context slice lives in
	// raw mapped memory the collector does not scan, so the Runner must
	// hold the only scanned reference.
	loadArenas []*arena.Arena

	nrChase uint
	nrLoad  uint

	ready   uint32
	release chan struct{}

	// Observer, when set, receives every accepted sample before it is
	// folded into the summary.
	Observer func(Sample)
}

// New prepares arenas, mixer, and per-thread state for cfg. Resource
// failures are fatal; there is no degraded mode for a measurement tool.
func New(cfg *config.Config) *Runner {
	r := &Runner{
		cfg:     cfg,
		release: make(chan struct{}),
	}

	switch cfg.Mode {
	case config.ModeBandwidth:
		r.nrLoad = cfg.NrThreads
	case config.ModeLoaded:
		r.nrChase = 1
		r.nrLoad = cfg.NrThreads - 1
	default:
		r.nrChase = cfg.NrThreads
	}

	if cfg.Mode != config.ModeBandwidth {
		mainArena := arena.Alloc(arena.Config{
			PageSize: cfg.PageSize,
			UseTHP:   cfg.UseTHP,
			Weights:  cfg.Weights,
		}, cfg.TotalMemory+cfg.Offset)

		r.chaseCfg = &permutation.ChaseConfig{
			Arena:          mainArena,
			Offset:         cfg.Offset,
			TotalMemory:    cfg.TotalMemory,
			Stride:         cfg.Stride,
			TLBLocality:    cfg.TLBLocality,
			NrMixerIndices: cfg.NrMixerIndices(),
			Gen:            permutation.GenRandom,
			Verify:         cfg.Verbosity > 2,
		}
		if cfg.Ordered {
			r.chaseCfg.Gen = permutation.GenOrdered
		}
		nrMixers := uint64(cfg.NrThreads) * uint64(cfg.Chase.Parallelism)
		r.chaseCfg.BuildMixer(nrMixers, rng.New(1))
	}

	// Worker state lives in its own native-page mapping, never in the
	// measured arena and never huge-backed: the padding between contexts
	// is the false-sharing guarantee, not the page size.
	ctxSize := uint64(unsafe.Sizeof(chase.ThreadContext{}))
	r.ctxArena = arena.Alloc(arena.Config{PageSize: arena.NativePageSize()},
		uint64(cfg.NrThreads)*ctxSize)
	r.threads = unsafe.Slice(
		(*chase.ThreadContext)(unsafe.Pointer(&r.ctxArena.Bytes()[0])),
		cfg.NrThreads)
	r.loadArenas = make([]*arena.Arena, cfg.NrThreads)

	if cfg.CacheFlushSize != 0 {
		flushArena := arena.Alloc(arena.Config{PageSize: arena.NativePageSize()},
			cfg.CacheFlushSize)
		r.flush = flushArena.Bytes()
		for i := range r.flush { // ensure pages are mapped
			r.flush[i] = 1
		}
	}
	return r
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// WORKERS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func (r *Runner) worker(t *chase.ThreadContext, isChase bool) {
	runtime.LockOSThread()
	if r.cfg.SetAffinity {
		affinity.PinToNth(t.ThreadNum)
	}

	// every worker draws from its own deterministic stream
	src := rng.New(uint64(t.ThreadNum))

	var fn chase.Fn
	if isChase {
		par := uint64(r.cfg.Chase.Parallelism)
		for p := uint64(0); p < par; p++ {
			t.Cycle[p] = r.chaseCfg.GenerateChase(src, par*uint64(t.ThreadNum)+p)
		}
		switch r.cfg.Chase.Name {
		case "critword":
			chase.LinkCritword(t.Cycle[0], uintptr(t.ExtraArg))
		case "critword2":
			chase.LinkCritword2(t.Cycle[0], uintptr(t.ExtraArg))
		}
		r.flushCaches(t)
		fn = r.cfg.Chase.Fn
	} else {
		buf := arena.Alloc(arena.Config{
			PageSize: r.cfg.PageSize,
			UseTHP:   r.cfg.UseTHP,
			Weights:  r.cfg.Weights,
		}, r.cfg.TotalMemory+r.cfg.Offset)
		r.loadArenas[t.ThreadNum] = buf
		t.LoadArena = buf.Bytes()[r.cfg.Offset:]
		for i := range t.LoadArena { // ensure pages are mapped
			t.LoadArena[i] = 1
		}
		fn = r.cfg.Load.Fn
	}

	debug.DropMessage(3, "WORKER", "thread "+utils.Itoa(t.ThreadNum)+" ready")

	// startup barrier: the last worker releases everyone, the harness
	// included
	if atomic.AddUint32(&r.ready, 1) == uint32(r.cfg.NrThreads) {
		close(r.release)
	} else {
		<-r.release
	}
	fn(t)
}

// flushCaches streams the flush arena once so the freshly built chase is
// cold before sampling starts.
func (r *Runner) flushCaches(t *chase.ThreadContext) {
	if len(r.flush) == 0 {
		return
	}
	words := unsafe.Slice((*uint64)(unsafe.Pointer(&r.flush[0])), len(r.flush)/8)
	var sum uint64
	for _, w := range words {
		sum += w
	}
	t.Dummy += sum
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SAMPLING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Run launches the workers and sweeps their counters until NrSamples
// samples have been accepted (forever when NrSamples is 0). Latency
// walkers are left spinning at the end; bandwidth workers are told to
// stop. The process is expected to exit shortly after.
func (r *Runner) Run() stats.Summary {
	for i := range r.threads {
		t := &r.threads[i]
		t.ThreadNum = i
		t.ExtraArg = r.cfg.ChaseArg
		go r.worker(t, uint(i) < r.nrChase)
	}
	<-r.release

	if r.nrLoad > 0 {
		// let scheduler thread migrations settle before measuring
		time.Sleep(8 * r.cfg.SampleInterval)
	}

	acc := stats.NewAccumulator(r.nrChase, r.nrLoad)
	perThread := make([]float64, len(r.threads))
	lastSampleTime := timer.NowNsec()
	var timeDelta uint64

	// one extra pass: the first sample is dropped
	for sampleNo := uint64(0); r.cfg.NrSamples == 0 || sampleNo < r.cfg.NrSamples+1; sampleNo++ {
		time.Sleep(r.cfg.SampleInterval)
		for i := range r.threads {
			r.threads[i].PublishSample(sampleNo + 1)
		}
		if r.nrLoad > 0 {
			time.Sleep(samplePoll)
		}

		var chaseSum uint64
		var loadSum float64
		for i := range r.threads {
			t := &r.threads[i]
			cur := t.TakeCount()
			for cur == 0 {
				time.Sleep(samplePoll)
				cur = t.TakeCount()
			}
			// chase threads occupy the low indices and are always making
			// progress; stamp the delta as soon as the last one is read
			// so load-thread polling never stretches it
			if uint(i)+1 == r.nrChase {
				now := timer.NowNsec()
				timeDelta = now - lastSampleTime
				lastSampleTime = now
			}
			perThread[i] = float64(cur)
			if uint(i) < r.nrChase {
				chaseSum += cur
			} else {
				loadSum += float64(cur)
			}
		}
		if r.nrChase == 0 {
			lastSampleTime = timer.NowNsec()
		}
		// per-thread figures: ns/access for chase threads (delta is only
		// final after the whole sweep), MiB/s as-is for load threads
		for i := uint(0); i < r.nrChase; i++ {
			perThread[i] = float64(timeDelta) / perThread[i]
		}

		if sampleNo == 0 {
			continue
		}

		acc.AddChase(timeDelta, chaseSum)
		acc.AddLoad(loadSum)
		if r.Observer != nil {
			s := Sample{
				No:        sampleNo,
				TimeDelta: timeDelta,
				ChaseOps:  chaseSum,
				LoadMibs:  loadSum,
				PerThread: append([]float64(nil), perThread...),
			}
			r.Observer(s)
		}
	}

	for i := range r.threads {
		r.threads[i].SignalStop()
	}
	return acc.Summarize()
}

// NrChaseThreads reports how many workers chase in this run.
func (r *Runner) NrChaseThreads() uint { return r.nrChase }

// NrLoadThreads reports how many workers generate bandwidth load.
func (r *Runner) NrLoadThreads() uint { return r.nrLoad }
