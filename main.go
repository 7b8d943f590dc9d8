// ════════════════════════════════════════════════════════════════════════════════════════════════
// Memory Latency & Bandwidth Microbenchmark
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Memory Latency & Bandwidth Microbenchmark
// Component: Entry Point
//
// Description:
//   Parses the run description, hands it to the harness, and reports. The
//   three run modes share one worker pool: latency (every thread walks a
//   pointer chase), bandwidth (every thread streams a memory load), and
//   loaded latency (thread 0 chases while the rest stream).
//
//   Reporting contract: the latency-only mode prints a single number (best
//   latency by default, -a for average) so scripts can capture it; modes
//   with loads print a CSV summary row. -json and -db add machine-readable
//   sinks on top.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"main/chase"
	"main/config"
	"main/debug"
	"main/harness"
	"main/results"
	"main/stats"
	"main/sysinfo"
)

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(w, "This program can run either read latency, memory bandwidth, or loaded-latency:\n")
	fmt.Fprintf(w, "    Latency only:   -c MUST NOT be chaseload, -l memload MUST NOT be used\n")
	fmt.Fprintf(w, "    Bandwidth only: -c MUST NOT be used,      -l memload MUST be used\n")
	fmt.Fprintf(w, "    Loaded-latency: -c MUST be chaseload,     -l memload MUST be used\n")
	fmt.Fprintf(w, "-a             print average latency (default is best latency)\n")
	fmt.Fprintf(w, "-c chase       select one of several different chases:\n")
	for i := range chase.Chases {
		fmt.Fprintf(w, "   %-12s%s\n", chase.Chases[i].Usage1, chase.Chases[i].Usage2)
	}
	fmt.Fprintf(w, "               default: %s\n", chase.Chases[0].Name)
	fmt.Fprintf(w, "-l memload     select one of several different memloads:\n")
	for i := range chase.Memloads {
		fmt.Fprintf(w, "   %-12s%s\n", chase.Memloads[i].Usage1, chase.Memloads[i].Usage2)
	}
	fmt.Fprintf(w, "               default: %s\n", chase.Memloads[0].Name)
	fmt.Fprintf(w, "-F nnnn[kmg]   amount of memory to use to flush the caches after constructing\n")
	fmt.Fprintf(w, "               the chase/memload and before starting the benchmark (use with nta)\n")
	fmt.Fprintf(w, "               default: %d\n", config.DefCacheFlush)
	fmt.Fprintf(w, "-p nnnn[kmg]   backing page size to use\n")
	fmt.Fprintf(w, "-H             use transparent hugepages (leave page size at default)\n")
	fmt.Fprintf(w, "-m nnnn[kmg]   total memory size (default %d)\n", config.DefTotalMemory)
	fmt.Fprintf(w, "               NOTE: memory size will be rounded down to a multiple of -T option\n")
	fmt.Fprintf(w, "-n nr_samples  nr of samples to use (default %d, 0 = infinite)\n", config.DefNrSamples)
	fmt.Fprintf(w, "-o             perform an ordered traversal (rather than random)\n")
	fmt.Fprintf(w, "-O nnnn[kmg]   offset the entire chase by nnnn bytes\n")
	fmt.Fprintf(w, "-s nnnn[kmg]   stride size (default %d)\n", config.DefStride)
	fmt.Fprintf(w, "-T nnnn[kmg]   TLB locality in bytes\n")
	fmt.Fprintf(w, "               NOTE: TLB locality will be rounded down to a multiple of stride\n")
	fmt.Fprintf(w, "-t nr_threads  number of threads (default %d)\n", config.DefNrThreads)
	fmt.Fprintf(w, "-v level       verbosity level (default 0)\n")
	fmt.Fprintf(w, "-W mbind list  list of node:weight,... pairs for allocating memory\n")
	fmt.Fprintf(w, "               0:10,1:90 weights it as 10%% on 0 and 90%% on 1\n")
	fmt.Fprintf(w, "-X             do not set thread affinity\n")
	fmt.Fprintf(w, "-y             print timestamp in front of each line\n")
	fmt.Fprintf(w, "-interval dur  sample interval (default %s)\n", config.DefSampleInterval)
	fmt.Fprintf(w, "-profile file  load run settings from a JSON profile (flags still override)\n")
	fmt.Fprintf(w, "-json          print the summary as JSON instead of text\n")
	fmt.Fprintf(w, "-db file       append the run summary to a SQLite database\n")
}

func fatalUsage(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}

func main() {
	cfg := config.Default()

	var (
		flagAvg      = flag.Bool("a", false, "")
		flagChase    = flag.String("c", "", "")
		flagLoad     = flag.String("l", "", "")
		flagFlush    = flag.String("F", "", "")
		flagPage     = flag.String("p", "", "")
		flagTHP      = flag.Bool("H", false, "")
		flagMem      = flag.String("m", "", "")
		flagSamples  = flag.Uint64("n", config.DefNrSamples, "")
		flagOrdered  = flag.Bool("o", false, "")
		flagOffset   = flag.String("O", "", "")
		flagStride   = flag.String("s", "", "")
		flagTLB      = flag.String("T", "", "")
		flagThreads  = flag.Uint("t", config.DefNrThreads, "")
		flagVerbose  = flag.Int("v", 0, "")
		flagWeights  = flag.String("W", "", "")
		flagNoAffin  = flag.Bool("X", false, "")
		flagStamp    = flag.Bool("y", false, "")
		flagInterval = flag.Duration("interval", config.DefSampleInterval, "")
		flagProfile  = flag.String("profile", "", "")
		flagJSON     = flag.Bool("json", false, "")
		flagDB       = flag.String("db", "", "")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
		os.Exit(1)
	}

	if *flagProfile != "" {
		if err := cfg.ApplyProfile(*flagProfile); err != nil {
			fatalUsage(err.Error())
		}
	}

	// explicitly given flags win over profile settings
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		var err error
		switch f.Name {
		case "a":
			cfg.PrintAverage = *flagAvg
		case "l":
			// -l is applied before -c so chaseload can claim loaded mode
			err = cfg.SelectLoad(*flagLoad)
		case "F":
			cfg.CacheFlushSize, err = config.ParseMemArg(*flagFlush)
		case "p":
			cfg.PageSize, err = config.ParseMemArg(*flagPage)
		case "H":
			cfg.UseTHP = *flagTHP
		case "m":
			cfg.TotalMemory, err = config.ParseMemArg(*flagMem)
			if err == nil && cfg.TotalMemory == 0 {
				err = fmt.Errorf("total_memory must be a positive integer")
			}
		case "n":
			cfg.NrSamples = *flagSamples
		case "o":
			cfg.Ordered = *flagOrdered
		case "O":
			cfg.Offset, err = config.ParseMemArg(*flagOffset)
		case "s":
			cfg.Stride, err = config.ParseMemArg(*flagStride)
		case "T":
			cfg.TLBLocality, err = config.ParseMemArg(*flagTLB)
		case "t":
			cfg.NrThreads = *flagThreads
		case "v":
			cfg.Verbosity = *flagVerbose
		case "W":
			cfg.Weights, err = config.ParseWeights(*flagWeights)
		case "X":
			cfg.SetAffinity = !*flagNoAffin
		case "y":
			cfg.PrintTimestamp = *flagStamp
		case "interval":
			cfg.SampleInterval = *flagInterval
		case "json":
			cfg.JSONOut = *flagJSON
		case "db":
			cfg.DBPath = *flagDB
		}
		if err != nil {
			flagErr = err
		}
	})
	if flagErr != nil {
		fatalUsage(flagErr.Error())
	}
	// -c last: it validates against the mode -l may have set
	if *flagChase != "" {
		if err := cfg.SelectChase(*flagChase); err != nil {
			fatalUsage(err.Error())
		}
	}

	debug.SetVerbosity(cfg.Verbosity)
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		fatalUsage(err.Error())
	}

	host := sysinfo.Collect()
	if cfg.SetAffinity && host.LogicalCPUs > 0 && int(cfg.NrThreads) > host.LogicalCPUs {
		fatalUsage("more threads than cpus available")
	}
	if !host.FitsInRAM(footprint(cfg)) {
		fmt.Fprintf(os.Stderr,
			"Warning: working set (%d bytes) exceeds available RAM (%d bytes)\n",
			footprint(cfg), host.AvailableRAM)
	}

	if cfg.Verbosity > 0 {
		printBanner(cfg, host)
	}

	started := time.Now()
	runner := harness.New(cfg)
	if cfg.Verbosity > 0 {
		runner.Observer = func(s harness.Sample) { printSample(cfg, s) }
	}
	summary := runner.Run()

	report(cfg, runner, summary)

	if cfg.DBPath != "" {
		store, err := results.Open(cfg.DBPath)
		if err != nil {
			debug.FatalError("RESULTS", err)
		}
		if err := store.Record(started, cfg, summary); err != nil {
			debug.FatalError("RESULTS", err)
		}
		store.Close()
	}
}

// footprint estimates the run's resident size for the RAM pre-flight.
func footprint(cfg *config.Config) uint64 {
	n := uint64(1)
	if cfg.Mode == config.ModeBandwidth {
		n = uint64(cfg.NrThreads)
	} else if cfg.Mode == config.ModeLoaded {
		n = uint64(cfg.NrThreads) // chase arena + one load arena per load thread
	}
	return n*(cfg.TotalMemory+cfg.Offset) + cfg.CacheFlushSize
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// REPORTING
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func timestamp(cfg *config.Config) {
	if cfg.PrintTimestamp {
		now := time.Now()
		fmt.Printf("%.6f ", float64(now.UnixNano())/1e9)
	}
}

// latPrec follows the reporting convention: three decimals under 100 ns,
// one above.
func latPrec(v float64) int {
	if v < 100 {
		return 3
	}
	return 1
}

func printBanner(cfg *config.Config, host sysinfo.Info) {
	fmt.Printf("nr_threads = %d\n", cfg.NrThreads)
	if cfg.UseTHP {
		fmt.Printf("page_size = %d (transparent hugepages)\n", cfg.PageSize)
	} else {
		fmt.Printf("page_size = %d\n", cfg.PageSize)
	}
	fmt.Printf("total_memory = %d (%.1f MiB)\n", cfg.TotalMemory,
		float64(cfg.TotalMemory)/(1024*1024))
	fmt.Printf("stride = %d\n", cfg.Stride)
	fmt.Printf("tlb_locality = %d\n", cfg.TLBLocality)
	fmt.Printf("chase = %s\n", cfg.ChaseName)
	fmt.Printf("memload = %s\n", cfg.LoadName)
	fmt.Printf("run_mode = %s\n", cfg.Mode)
	if host.LogicalCPUs > 0 {
		fmt.Printf("host_cpus = %d", host.LogicalCPUs)
		if host.ModelName != "" {
			fmt.Printf(" (%s)", host.ModelName)
		}
		fmt.Println()
	}
	if host.TotalRAM > 0 {
		fmt.Printf("host_ram = %d (%.1f MiB available)\n", host.TotalRAM,
			float64(host.AvailableRAM)/(1024*1024))
	}
	if cfg.Mode == config.ModeLatency {
		fmt.Println("samples (one column per thread, one row per sample):")
	}
}

func printSample(cfg *config.Config, s harness.Sample) {
	timestamp(cfg)
	switch cfg.Mode {
	case config.ModeLatency:
		for _, z := range s.PerThread {
			fmt.Printf(" %6.*f", latPrec(z), z)
		}
		avg := float64(s.TimeDelta) / float64(s.ChaseOps) * float64(cfg.NrThreads)
		fmt.Printf("  avg=%.*f\n", latPrec(avg), avg)
	case config.ModeBandwidth:
		fmt.Printf("sample %d: Total(MiB/s)=%.*f, PerThread=%.0f\n",
			s.No, latPrec(s.LoadMibs), s.LoadMibs, s.LoadMibs/float64(len(s.PerThread)))
	default:
		lat := float64(s.TimeDelta) / float64(s.ChaseOps)
		fmt.Printf("sample %d: latency=%.*f(ns), load=%.0f(MiB/s)\n",
			s.No, latPrec(lat), lat, s.LoadMibs)
	}
}

// jsonReport is the machine-readable shape of a finished run.
type jsonReport struct {
	Mode     string        `json:"mode"`
	Chase    string        `json:"chase"`
	Memload  string        `json:"memload,omitempty"`
	Memory   uint64        `json:"total_memory"`
	Stride   uint64        `json:"stride"`
	Threads  uint          `json:"threads"`
	Host     sysinfo.Info  `json:"host"`
	Summary  stats.Summary `json:"summary"`
	Latency  float64       `json:"latency_ns,omitempty"`
	LoadMibs float64       `json:"load_mibps,omitempty"`
}

func report(cfg *config.Config, runner *harness.Runner, sum stats.Summary) {
	// headline latency figure: best by default; -a switches to the plain
	// average for latency-only runs and the geometric mean under load,
	// where outlier samples are common
	headline := sum.LatencyBest
	if cfg.PrintAverage {
		if cfg.Mode == config.ModeLatency {
			headline = sum.LatencyAvg
		} else {
			headline = sum.LatencyGeo
		}
	}

	if cfg.JSONOut {
		jr := jsonReport{
			Mode:     cfg.Mode.String(),
			Chase:    cfg.ChaseName,
			Memory:   cfg.TotalMemory,
			Stride:   cfg.Stride,
			Threads:  cfg.NrThreads,
			Host:     sysinfo.Collect(),
			Summary:  sum,
			Latency:  headline,
			LoadMibs: sum.LoadAvgMibs,
		}
		if cfg.Mode != config.ModeLatency {
			jr.Memload = cfg.LoadName
		}
		out, err := sonnet.Marshal(&jr)
		if err != nil {
			debug.FatalError("REPORT", err)
		}
		os.Stdout.Write(out)
		os.Stdout.Write([]byte{'\n'})
		return
	}

	if cfg.Mode == config.ModeLatency {
		// scriptable single-number output
		timestamp(cfg)
		fmt.Printf("%6.*f\n", latPrec(headline), headline)
		return
	}

	const notUsed = "--------"
	chaseMibs := stats.MibsForLatency(headline, runner.NrChaseThreads())
	chaseArg, loadArg := cfg.ChaseName, cfg.LoadName
	if cfg.Mode == config.ModeBandwidth {
		chaseArg = notUsed
	}
	fmt.Println("Samples\t, Byte/thd\t, ChaseThds\t, ChaseNS\t, ChaseMibs\t, " +
		"ChDeviate\t, LoadThds\t, LdMaxMibs\t, LdAvgMibs\t, LdDeviate\t, " +
		"ChaseArg\t, MemLdArg")
	fmt.Printf("%-6d\t, %-11d\t, %-8d\t, %-8.3f\t, %-8.f\t, %-8.3f\t, %-8d\t, "+
		"%-8.f\t, %-8.f\t, %-8.3f\t, %s\t, %s\n",
		sum.Samples, cfg.TotalMemory, runner.NrChaseThreads(),
		headline, chaseMibs, sum.LatencyDev, runner.NrLoadThreads(),
		sum.LoadMaxMibs, sum.LoadAvgMibs, sum.LoadDev,
		chaseArg, loadArg)
	timestamp(cfg)
	if cfg.PrintTimestamp {
		fmt.Println()
	}
}
