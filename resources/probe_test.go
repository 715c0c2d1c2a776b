package resources

import (
	"runtime"
	"strings"
	"testing"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/config"
)

const sampleMeminfo = `MemTotal:       16384000 kB
MemFree:         1024000 kB
MemAvailable:    8192000 kB
Buffers:          512000 kB
`

func TestParseMemTotal(t *testing.T) {
	got := parseMemTotal(strings.NewReader(sampleMeminfo))
	want := uint64(16384000) * 1024
	if got != want {
		t.Errorf("parseMemTotal = %d, want %d", got, want)
	}
}

func TestParseMemTotalMalformed(t *testing.T) {
	cases := []string{
		"",
		"MemFree: 1024 kB\n",
		"MemTotal: lots kB\n",
		"MemTotal:\n",
	}
	for _, c := range cases {
		if got := parseMemTotal(strings.NewReader(c)); got != 0 {
			t.Errorf("parseMemTotal(%q) = %d, want 0", c, got)
		}
	}
}

func TestProbeReportsCores(t *testing.T) {
	host := Probe()
	if host.CoreCount != runtime.NumCPU() {
		t.Errorf("CoreCount = %d, want %d", host.CoreCount, runtime.NumCPU())
	}
}

func TestAdjustClampsThreads(t *testing.T) {
	cfg := config.RunConfig{Threads: 64, MemoryGB: 16}
	host := HostInfo{CoreCount: 8, TotalMemory: 32 * 1024 * 1024 * 1024}

	adjusted, advisories := Adjust(cfg, host)
	if adjusted.Threads != 8 {
		t.Errorf("Threads = %d, want 8", adjusted.Threads)
	}
	if len(advisories) != 1 {
		t.Errorf("got %d advisories, want exactly 1: %v", len(advisories), advisories)
	}
}

func TestAdjustClampsMemory(t *testing.T) {
	cfg := config.RunConfig{Threads: 4, MemoryGB: 64, LowMemory: true}
	host := HostInfo{CoreCount: 8, TotalMemory: 8 * 1024 * 1024 * 1024}

	adjusted, advisories := Adjust(cfg, host)
	if adjusted.MemoryGB != 8 {
		t.Errorf("MemoryGB = %d, want 8", adjusted.MemoryGB)
	}
	if len(advisories) != 1 {
		t.Errorf("got %d advisories, want exactly 1: %v", len(advisories), advisories)
	}
}

func TestAdjustRecommendsLowMemory(t *testing.T) {
	cfg := config.RunConfig{Threads: 4, MemoryGB: 8}
	host := HostInfo{CoreCount: 8, TotalMemory: 8 * 1024 * 1024 * 1024}

	adjusted, advisories := Adjust(cfg, host)
	if !adjusted.LowMemory {
		t.Error("LowMemory not enabled on an 8 GB host")
	}
	if len(advisories) != 1 {
		t.Errorf("got %d advisories, want exactly 1: %v", len(advisories), advisories)
	}
}

func TestAdjustUnknownHostLeavesConfigAlone(t *testing.T) {
	cfg := config.RunConfig{Threads: 64, MemoryGB: 128}

	adjusted, advisories := Adjust(cfg, HostInfo{})
	if adjusted.Threads != 64 || adjusted.MemoryGB != 128 {
		t.Errorf("config changed with unknown host: threads=%d mem=%d", adjusted.Threads, adjusted.MemoryGB)
	}
	if len(advisories) != 0 {
		t.Errorf("got advisories with unknown host: %v", advisories)
	}
}

func TestAdjustWithinBudgetNoAdvisories(t *testing.T) {
	cfg := config.RunConfig{Threads: 4, MemoryGB: 16}
	host := HostInfo{CoreCount: 8, TotalMemory: 32 * 1024 * 1024 * 1024}

	adjusted, advisories := Adjust(cfg, host)
	if adjusted.Threads != 4 || adjusted.MemoryGB != 16 {
		t.Errorf("config changed without need: threads=%d mem=%d", adjusted.Threads, adjusted.MemoryGB)
	}
	if len(advisories) != 0 {
		t.Errorf("got advisories within budget: %v", advisories)
	}
}

func TestFreeDisk(t *testing.T) {
	free, err := FreeDisk(t.TempDir())
	if err != nil {
		t.Fatalf("FreeDisk: %v", err)
	}
	if free == 0 {
		t.Error("FreeDisk reported 0 bytes available")
	}
}
