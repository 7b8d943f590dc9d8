// sysinfo.go — host facts for the verbose banner and pre-flight checks.
// Collection is best effort: a probe that fails leaves its field zero
// rather than blocking the run.

package sysinfo

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info describes the host the benchmark is about to stress.
type Info struct {
	LogicalCPUs  int    `json:"logical_cpus"`
	ModelName    string `json:"cpu_model,omitempty"`
	TotalRAM     uint64 `json:"total_ram"`
	AvailableRAM uint64 `json:"available_ram"`
}

// Collect probes the host. Never fails; missing probes leave zeros.
func Collect() Info {
	var info Info
	if n, err := cpu.Counts(true); err == nil {
		info.LogicalCPUs = n
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.ModelName = infos[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalRAM = vm.Total
		info.AvailableRAM = vm.Available
	}
	return info
}

// FitsInRAM reports whether the requested working set leaves headroom on
// this host. Unknown capacity reports true; the kernel will say no soon
// enough if it cannot.
func (i Info) FitsInRAM(bytes uint64) bool {
	if i.AvailableRAM == 0 {
		return true
	}
	return bytes <= i.AvailableRAM
}
