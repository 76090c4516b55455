package workers

import (
	"context"
	"log/slog"
	"time"

	"pair-chat/observability"
)

// StatsSource reports the engine counters logged with each heartbeat.
type StatsSource interface {
	Counts() (online int, idle int)
}

// HeartbeatWorker samples process stats at a fixed interval and logs them
// together with the presence counts.
type HeartbeatWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	source   StatsSource
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitor *observability.Monitor, source StatsSource, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitor: monitor, source: source, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Beat()
		}
	}
}

func (w *HeartbeatWorker) Beat() {
	stats, err := w.monitor.Sample()
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
		return
	}
	online, idle := w.source.Counts()
	w.log.Info("Heartbeat",
		"online", online,
		"idle", idle,
		"rss_bytes", stats.RSSBytes,
		"cpu_percent", stats.CPUPercent,
		"goroutines", stats.Goroutines,
	)
}
