package resources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/config"
)

// LowMemoryFloorGB is the host memory below which the assembler is switched
// to its reduced-memory mode.
const LowMemoryFloorGB = 16

// HostInfo describes what the probe could learn about the machine. Zero
// values mean the figure could not be determined and nothing is clamped
// against it.
type HostInfo struct {
	CoreCount   int
	TotalMemory uint64
}

func (h HostInfo) TotalMemGB() int {
	return int(h.TotalMemory / (1024 * 1024 * 1024))
}

// Probe inspects the host. It never fails; on platforms or containers where
// memory cannot be read the total is simply reported as unknown.
func Probe() HostInfo {
	host := HostInfo{CoreCount: runtime.NumCPU()}
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return host
	}
	defer f.Close()
	host.TotalMemory = parseMemTotal(f)
	return host
}

// parseMemTotal pulls the MemTotal line out of a /proc/meminfo stream and
// returns it in bytes, 0 if absent or malformed.
func parseMemTotal(r io.Reader) uint64 {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

// Adjust clamps the requested thread and memory budgets to what the host
// actually has, and switches on low-memory assembly when the host is small.
// Each change produces exactly one advisory. Unknown host figures leave the
// request untouched.
func Adjust(cfg config.RunConfig, host HostInfo) (config.RunConfig, []string) {
	var advisories []string

	if host.CoreCount > 0 && cfg.Threads > host.CoreCount {
		advisories = append(advisories, fmt.Sprintf("requested %d threads but host has %d cores, running with %d", cfg.Threads, host.CoreCount, host.CoreCount))
		cfg.Threads = host.CoreCount
	}
	memGB := host.TotalMemGB()
	if memGB > 0 && cfg.MemoryGB > memGB {
		advisories = append(advisories, fmt.Sprintf("requested %d GB memory but host has %d GB, running with %d GB", cfg.MemoryGB, memGB, memGB))
		cfg.MemoryGB = memGB
	}
	if memGB > 0 && memGB < LowMemoryFloorGB && !cfg.LowMemory {
		advisories = append(advisories, fmt.Sprintf("host memory %d GB is below %d GB, switching to low-memory assembly mode", memGB, LowMemoryFloorGB))
		cfg.LowMemory = true
	}
	return cfg, advisories
}

// FreeDisk reports the bytes available to the current user on the filesystem
// holding path.
func FreeDisk(path string) (uint64, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return fs.Bavail * uint64(fs.Bsize), nil
}
