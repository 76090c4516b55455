package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is a sample of the server's own resource usage.
type ProcessStats struct {
	PID        int32     `json:"pid"`
	RSSBytes   uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
	Threads    int32     `json:"threads"`
	Goroutines int       `json:"goroutines"`
	AllocMemMb uint64    `json:"alloc_mem_mb"`
	NumGC      uint32    `json:"num_gc"`
	SampledAt  time.Time `json:"sampled_at"`
}

// Monitor keeps the latest ProcessStats for the admin report.
type Monitor struct {
	log     *slog.Logger
	mu      sync.RWMutex
	process *process.Process
	latest  ProcessStats
}

func NewMonitor(log *slog.Logger) (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{log: log, process: p}, nil
}

// Sample reads the current stats and keeps them as the latest.
func (m *Monitor) Sample() (ProcessStats, error) {
	memInfo, err := m.process.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := m.process.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	threads, err := m.process.NumThreads()
	if err != nil {
		return ProcessStats{}, err
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := ProcessStats{
		PID:        m.process.Pid,
		RSSBytes:   memInfo.RSS,
		CPUPercent: cpuPercent,
		Threads:    threads,
		Goroutines: runtime.NumGoroutine(),
		AllocMemMb: mem.Alloc / 1024 / 1024,
		NumGC:      mem.NumGC,
		SampledAt:  time.Now(),
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()

	m.log.Debug("Process stats sampled",
		"rss_bytes", stats.RSSBytes,
		"cpu_percent", stats.CPUPercent,
		"goroutines", stats.Goroutines,
	)
	return stats, nil
}

// Latest returns the last sample, the zero value before the first one.
func (m *Monitor) Latest() ProcessStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}
