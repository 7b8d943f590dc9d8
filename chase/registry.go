// registry.go — the fixed catalog of traversal strategies and bandwidth loads.
//
// Strategy selection is resolved by name before any resource is acquired;
// requires-arg violations are configuration errors, never runtime surprises.

package chase

import "unsafe"

// Fn is a traversal or load kernel. Latency kernels loop until process
// teardown; bandwidth kernels additionally honor ThreadContext.Stop.
type Fn func(t *ThreadContext)

// Chase describes one registered strategy.
type Chase struct {
	Fn             Fn
	BaseObjectSize uint64 // minimum element size the strategy needs
	Name           string
	Usage1         string
	Usage2         string
	RequiresArg    bool
	Parallelism    uint // independent chase heads per thread; 0 for loads
}

// Chases lists the traversal strategies; the default must be first.
// Architecture-specific entries are appended by init in walkers_<arch>.go.
var Chases = []Chase{
	{
		Fn:             chaseSimple,
		BaseObjectSize: uint64(unsafe.Sizeof(uintptr(0))),
		Name:           "simple",
		Usage1:         "simple",
		Usage2:         "no frills pointer dereferencing",
		Parallelism:    1,
	},
	{
		Fn:             chaseWork,
		BaseObjectSize: uint64(unsafe.Sizeof(uintptr(0))),
		Name:           "work",
		Usage1:         "work:N",
		Usage2:         "loop simple computation N times in between derefs",
		RequiresArg:    true,
		Parallelism:    1,
	},
	{
		Fn:             chaseIncr,
		BaseObjectSize: 16, // next pointer plus the incremented word
		Name:           "incr",
		Usage1:         "incr",
		Usage2:         "modify the cache line after each deref",
		Parallelism:    1,
	},
	{Fn: chaseParallel2, BaseObjectSize: 8, Name: "parallel2", Usage1: "parallel2", Usage2: "alternate 2 non-dependent chases in each thread", Parallelism: 2},
	{Fn: chaseParallel3, BaseObjectSize: 8, Name: "parallel3", Usage1: "parallel3", Usage2: "alternate 3 non-dependent chases in each thread", Parallelism: 3},
	{Fn: chaseParallel4, BaseObjectSize: 8, Name: "parallel4", Usage1: "parallel4", Usage2: "alternate 4 non-dependent chases in each thread", Parallelism: 4},
	{Fn: chaseParallel5, BaseObjectSize: 8, Name: "parallel5", Usage1: "parallel5", Usage2: "alternate 5 non-dependent chases in each thread", Parallelism: 5},
	{Fn: chaseParallel6, BaseObjectSize: 8, Name: "parallel6", Usage1: "parallel6", Usage2: "alternate 6 non-dependent chases in each thread", Parallelism: 6},
	{Fn: chaseParallel7, BaseObjectSize: 8, Name: "parallel7", Usage1: "parallel7", Usage2: "alternate 7 non-dependent chases in each thread", Parallelism: 7},
	{Fn: chaseParallel8, BaseObjectSize: 8, Name: "parallel8", Usage1: "parallel8", Usage2: "alternate 8 non-dependent chases in each thread", Parallelism: 8},
	{Fn: chaseParallel9, BaseObjectSize: 8, Name: "parallel9", Usage1: "parallel9", Usage2: "alternate 9 non-dependent chases in each thread", Parallelism: 9},
	{Fn: chaseParallel10, BaseObjectSize: 8, Name: "parallel10", Usage1: "parallel10", Usage2: "alternate 10 non-dependent chases in each thread", Parallelism: 10},
	{
		Fn:             chaseSimple,
		BaseObjectSize: uint64(unsafe.Sizeof(uintptr(0))),
		Name:           "chaseload",
		Usage1:         "chaseload",
		Usage2:         "runs simple chase with multiple memory bandwidth loads",
		Parallelism:    1,
	},
	{
		Fn:             chaseCritword2,
		BaseObjectSize: CacheLineSize,
		Name:           "critword2",
		Usage1:         "critword2:N",
		Usage2:         "a two-parallel chase which reads at X and X+N",
		RequiresArg:    true,
		Parallelism:    1,
	},
	{
		Fn:             chaseSimple,
		BaseObjectSize: CacheLineSize,
		Name:           "critword",
		Usage1:         "critword:N",
		Usage2:         "a non-parallel chase which reads at X and X+N",
		RequiresArg:    true,
		Parallelism:    1,
	},
}

// Memloads lists the bandwidth strategies; the default must be first.
var Memloads = []Chase{
	{Fn: loadMemcpy, BaseObjectSize: 8, Name: "memcpy-libc", Usage1: "memcpy-libc", Usage2: "1:1 rd:wr - memcpy()"},
	{Fn: loadMemset, BaseObjectSize: 8, Name: "memset-libc", Usage1: "memset-libc", Usage2: "0:1 rd:wr - memset() non-zero data"},
	{Fn: loadMemsetZero, BaseObjectSize: 8, Name: "memsetz-libc", Usage1: "memsetz-libc", Usage2: "0:1 rd:wr - memset() zero data"},
	{Fn: loadStreamCopy, BaseObjectSize: 8, Name: "stream-copy", Usage1: "stream-copy", Usage2: "1:1 rd:wr - lmbench stream copy b[i]=a[i]"},
	{Fn: loadStreamSum, BaseObjectSize: 8, Name: "stream-sum", Usage1: "stream-sum", Usage2: "1:0 rd:wr - lmbench stream sum s+=a[i]"},
	{Fn: loadStreamTriad, BaseObjectSize: 8, Name: "stream-triad", Usage1: "stream-triad", Usage2: "2:1 rd:wr - lmbench stream triad a[i]=b[i]+(scalar*c[i])"},
}

// FindChase resolves a traversal strategy by name.
func FindChase(name string) (*Chase, bool) {
	for i := range Chases {
		if Chases[i].Name == name {
			return &Chases[i], true
		}
	}
	return nil, false
}

// FindLoad resolves a bandwidth strategy by name.
func FindLoad(name string) (*Chase, bool) {
	for i := range Memloads {
		if Memloads[i].Name == name {
			return &Memloads[i], true
		}
	}
	return nil, false
}
