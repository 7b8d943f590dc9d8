// config/config_test.go — parsing, sanitization, and mode-selection tests
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseMemArg(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"4096", 4096},
		{"4k", 4096},
		{"4K", 4096},
		{"16m", 16 * 1024 * 1024},
		{"2G", 2 * 1024 * 1024 * 1024},
		{"0x1000", 4096},
		{"0x4k", 4 * 1024},
	}
	for _, c := range cases {
		got, err := ParseMemArg(c.in)
		if err != nil {
			t.Errorf("ParseMemArg(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseMemArg(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	for _, bad := range []string{"", "k", "12q", "-5", "1.5g"} {
		if _, err := ParseMemArg(bad); err == nil {
			t.Errorf("ParseMemArg(%q) accepted", bad)
		}
	}
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights("0:10,1:90")
	if err != nil {
		t.Fatal(err)
	}
	if w[0] != 10 || w[1] != 90 {
		t.Errorf("weights = %d/%d, want 10/90", w[0], w[1])
	}
	for _, bad := range []string{"", "5", "0:", ":5", "99:1", "0:10,bad"} {
		if _, err := ParseWeights(bad); err == nil {
			t.Errorf("ParseWeights(%q) accepted", bad)
		}
	}
}

func TestSanitizeRounding(t *testing.T) {
	// TLB locality rounds down to a stride multiple, total memory down to
	// a TLB-locality multiple
	c := Default()
	c.Stride = 256
	c.TLBLocality = 1000
	c.TotalMemory = 10000
	c.Sanitize()
	if c.TLBLocality != 768 {
		t.Errorf("tlb_locality = %d, want 768", c.TLBLocality)
	}
	if c.TotalMemory != 9984 {
		t.Errorf("total_memory = %d, want 9984", c.TotalMemory)
	}
}

func TestSanitizeSmallMemory(t *testing.T) {
	// when total memory is below the TLB locality, both clamp together
	c := Default()
	c.Stride = 256
	c.TLBLocality = 1 << 20
	c.TotalMemory = 1000
	c.Sanitize()
	if c.TotalMemory != 768 {
		t.Errorf("total_memory = %d, want 768", c.TotalMemory)
	}
	if c.TLBLocality != c.TotalMemory {
		t.Errorf("tlb_locality = %d, want %d", c.TLBLocality, c.TotalMemory)
	}
	c2 := Default()
	c2.Stride = 256
	c2.TLBLocality = 1 << 20
	c2.TotalMemory = 100 // below even one stride
	c2.Sanitize()
	if c2.TotalMemory != 256 {
		t.Errorf("tiny total_memory = %d, want 256", c2.TotalMemory)
	}
}

func TestModeSelection(t *testing.T) {
	c := Default()
	if c.Mode != ModeLatency {
		t.Fatal("default mode is not latency")
	}
	if err := c.SelectLoad("stream-sum"); err != nil {
		t.Fatal(err)
	}
	if c.Mode != ModeBandwidth {
		t.Error("selecting a memload alone should give bandwidth mode")
	}
	if err := c.SelectChase("chaseload"); err != nil {
		t.Fatal(err)
	}
	if c.Mode != ModeLoaded {
		t.Error("chaseload on top of a memload should give loaded latency")
	}

	// any other chase conflicts with a selected memload
	c2 := Default()
	if err := c2.SelectLoad("memset-libc"); err != nil {
		t.Fatal(err)
	}
	if err := c2.SelectChase("simple"); err == nil {
		t.Error("simple chase accepted alongside a memload")
	}
}

func TestSelectChaseArgs(t *testing.T) {
	c := Default()
	if err := c.SelectChase("work:16"); err != nil {
		t.Fatal(err)
	}
	if c.ChaseArg != 16 {
		t.Errorf("chase arg = %d, want 16", c.ChaseArg)
	}
	if err := Default().SelectChase("work"); err == nil {
		t.Error("work without an argument accepted")
	}
	if err := Default().SelectChase("simple:3"); err == nil {
		t.Error("simple with an argument accepted")
	}
	if err := Default().SelectChase("critword:32"); err != nil {
		t.Errorf("critword:32 rejected: %v", err)
	}
	if err := Default().SelectChase("bogus"); err == nil {
		t.Error("unknown chase accepted")
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Sanitize()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	small := Default()
	small.Stride = 4
	if err := small.Validate(); err == nil {
		t.Error("sub-pointer stride accepted")
	}

	odd := Default()
	odd.PageSize = 3 << 20
	if err := odd.Validate(); err == nil {
		t.Error("non-power-of-two page size accepted")
	}

	crowded := Default()
	if err := crowded.SelectChase("parallel10"); err != nil {
		t.Fatal(err)
	}
	crowded.Stride = 64 // 8 slots, but 4 threads x 10 heads wanted
	crowded.NrThreads = 4
	crowded.Sanitize()
	if err := crowded.Validate(); err == nil {
		t.Error("over-subscribed mixer slots accepted")
	}

	loaded := Default()
	if err := loaded.SelectLoad("memcpy-libc"); err != nil {
		t.Fatal(err)
	}
	if err := loaded.SelectChase("chaseload"); err != nil {
		t.Fatal(err)
	}
	loaded.NrThreads = 1
	if err := loaded.Validate(); err == nil {
		t.Error("loaded latency with one thread accepted")
	}
}

func TestApplyProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	body := `{
		"total_memory": "16m",
		"stride": "128",
		"threads": 4,
		"samples": 9,
		"sample_interval_ms": 100,
		"chase": "work:8",
		"ordered": true,
		"set_affinity": false
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.ApplyProfile(path); err != nil {
		t.Fatal(err)
	}
	if c.TotalMemory != 16*1024*1024 {
		t.Errorf("total_memory = %d", c.TotalMemory)
	}
	if c.Stride != 128 {
		t.Errorf("stride = %d", c.Stride)
	}
	if c.NrThreads != 4 || c.NrSamples != 9 {
		t.Errorf("threads/samples = %d/%d", c.NrThreads, c.NrSamples)
	}
	if c.SampleInterval != 100*time.Millisecond {
		t.Errorf("interval = %s", c.SampleInterval)
	}
	if c.Chase.Name != "work" || c.ChaseArg != 8 {
		t.Errorf("chase = %s:%d", c.Chase.Name, c.ChaseArg)
	}
	if !c.Ordered || c.SetAffinity {
		t.Error("bool overrides not applied")
	}

	if err := Default().ApplyProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing profile accepted")
	}
	badPath := filepath.Join(dir, "bad.json")
	os.WriteFile(badPath, []byte(`{"stride": "12q"}`), 0o644)
	if err := Default().ApplyProfile(badPath); err == nil {
		t.Error("bad size string in profile accepted")
	}
}
