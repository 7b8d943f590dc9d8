// sysinfo/sysinfo_test.go
package sysinfo

import "testing"

func TestCollect(t *testing.T) {
	info := Collect()
	if info.LogicalCPUs < 1 {
		t.Errorf("logical cpus = %d", info.LogicalCPUs)
	}
	if info.TotalRAM == 0 {
		t.Error("total RAM probe failed")
	}
	if info.AvailableRAM > info.TotalRAM {
		t.Errorf("available %d exceeds total %d", info.AvailableRAM, info.TotalRAM)
	}
}

func TestFitsInRAM(t *testing.T) {
	i := Info{AvailableRAM: 1 << 30}
	if !i.FitsInRAM(1 << 20) {
		t.Error("1 MiB rejected with 1 GiB available")
	}
	if i.FitsInRAM(1 << 31) {
		t.Error("2 GiB accepted with 1 GiB available")
	}
	if !(Info{}).FitsInRAM(1 << 40) {
		t.Error("unknown capacity must not reject")
	}
}
