package sink

import (
	"context"
	"log/slog"

	"pair-chat/domain/event"
)

// LogSink writes one structured line per recorded event.
// Message text is never logged, only its length.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (l LogSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ConnectionRecorded:
		l.log.InfoContext(ctx, "Connection",
			"kind", evt.Kind,
			"client_id", evt.ClientID,
			"session_id", evt.SessionID,
			"ip", evt.Enrichment.IP,
			"country", evt.Enrichment.Country)
	case event.SessionStarted:
		l.log.InfoContext(ctx, "Session started",
			"session_id", evt.Session.ID,
			"participants", evt.Session.Participants)
	case event.SessionEnded:
		l.log.InfoContext(ctx, "Session ended", "session_id", evt.SessionID)
	case event.MessageRelayed:
		l.log.DebugContext(ctx, "Message relayed",
			"session_id", evt.SessionID,
			"sender_id", evt.SenderID,
			"length", len(evt.Text))
	}
	return nil
}
