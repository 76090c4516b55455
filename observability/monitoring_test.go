package observability

import (
	"log/slog"
	"os"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Sample(t *testing.T) {
	req := require.New(t)
	monitor, err := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	// Given no sample was taken yet
	req.Zero(monitor.Latest().PID)

	// When the process is sampled
	stats, err := monitor.Sample()
	req.NoError(err)

	// Then the sample describes this process and is kept as the latest
	req.Equal(int32(os.Getpid()), stats.PID)
	req.Positive(stats.RSSBytes)
	req.Positive(stats.Goroutines)
	req.Equal(stats, monitor.Latest())
}
