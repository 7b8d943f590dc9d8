//go:build linux

// affinity_linux.go — thread pinning via sched_{get,set}affinity(2).

package affinity

import (
	"golang.org/x/sys/unix"

	"main/debug"
	"main/utils"
)

// PinToNth pins the calling thread to the nth CPU it is currently allowed to
// run on, counting set bits in the inherited affinity mask. Worker n lands
// on the nth allowed CPU, so a taskset-restricted parent confines the whole
// run. Fatal when the mask has fewer than n+1 CPUs: oversubscribed walkers
// would measure the scheduler, not the memory system.
//
// The caller must already hold runtime.LockOSThread.
func PinToNth(n int) {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		debug.FatalError("sched_getaffinity", err)
	}

	cpu := -1
	remaining := n
	for c := 0; c < len(allowed)*64; c++ {
		if !allowed.IsSet(c) {
			continue
		}
		if remaining == 0 {
			cpu = c
			break
		}
		remaining--
	}
	if cpu < 0 {
		debug.Fatal("affinity", "more threads than cpus available")
	}

	var one unix.CPUSet
	one.Set(cpu)
	if err := unix.SchedSetaffinity(0, &one); err != nil {
		debug.Fatal("sched_setaffinity", "cpu "+utils.Itoa(cpu)+": "+err.Error())
	}
	debug.DropMessage(2, "AFFINITY", "thread "+utils.Itoa(n)+" pinned to cpu "+utils.Itoa(cpu))
}

// AvailableCPUs counts the CPUs the process may currently run on.
func AvailableCPUs() int {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		debug.FatalError("sched_getaffinity", err)
	}
	return allowed.Count()
}
