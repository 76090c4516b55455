package workers

import (
	"context"
	"log/slog"
	"time"

	"pair-chat/contract"
	"pair-chat/domain/chat"
)

// PresenceSource is the part of the registry the presence broadcast reads.
type PresenceSource interface {
	Counts() (online int, idle int)
	Outboxes() []contract.Outbox
}

// PresenceWorker periodically pushes the online and idle counts to every connection.
type PresenceWorker struct {
	log      *slog.Logger
	source   PresenceSource
	inflator contract.Inflator
	interval time.Duration
}

func NewPresenceWorker(log *slog.Logger, source PresenceSource, inflator contract.Inflator, interval time.Duration) *PresenceWorker {
	return &PresenceWorker{log: log, source: source, inflator: inflator, interval: interval}
}

func (w *PresenceWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Broadcast()
		}
	}
}

// Broadcast sends one counts message to every registered connection.
// Closed outboxes are skipped; their owners are already on their way out.
func (w *PresenceWorker) Broadcast() int {
	online, idle := w.source.Counts()
	msg := chat.Counts{Online: w.inflator.Adjust(online), Idle: idle}

	delivered := 0
	for _, outbox := range w.source.Outboxes() {
		if err := outbox.Send(msg); err == nil {
			delivered++
		}
	}
	w.log.Debug("Presence broadcast", "online", online, "shown", msg.Online, "idle", idle, "delivered", delivered)
	return delivered
}
