package runtime

import (
	"log/slog"
	"sync/atomic"
	"time"

	"pair-chat/domain"
	"pair-chat/domain/event"
)

// AsyncRecorder turns Recorder calls into events on a bounded channel.
// A full channel drops the event: the pairing path never waits on storage.
type AsyncRecorder struct {
	log     *slog.Logger
	events  chan event.DomainEvent
	dropped atomic.Uint64
	clock   func() time.Time
}

func NewAsyncRecorder(log *slog.Logger, bufferSize int) *AsyncRecorder {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &AsyncRecorder{
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
		clock:  time.Now,
	}
}

func (r *AsyncRecorder) RecordConnect(kind event.ConnectKind, clientID domain.ClientID, sessionID domain.SessionID, enrichment domain.Enrichment) {
	r.publish(event.ConnectionRecorded{
		Kind:       kind,
		ClientID:   clientID,
		SessionID:  sessionID,
		Enrichment: enrichment,
		At:         r.clock(),
	})
}

func (r *AsyncRecorder) RecordSessionStart(session domain.Session) {
	r.publish(event.SessionStarted{Session: session})
}

func (r *AsyncRecorder) RecordSessionEnd(sessionID domain.SessionID, at time.Time) {
	r.publish(event.SessionEnded{SessionID: sessionID, At: at})
}

func (r *AsyncRecorder) RecordMessage(sessionID domain.SessionID, senderID domain.ClientID, text string) {
	r.publish(event.MessageRelayed{
		SessionID: sessionID,
		SenderID:  senderID,
		Text:      text,
		At:        r.clock(),
	})
}

// Events is consumed by the fanout worker.
func (r *AsyncRecorder) Events() <-chan event.DomainEvent {
	return r.events
}

func (r *AsyncRecorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *AsyncRecorder) publish(e event.DomainEvent) {
	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
		r.log.Warn("Recorder buffer full, dropping event", "event", eventName(e))
	}
}

func eventName(e event.DomainEvent) string {
	switch e.(type) {
	case event.ConnectionRecorded:
		return "connection"
	case event.SessionStarted:
		return "session_started"
	case event.SessionEnded:
		return "session_ended"
	case event.MessageRelayed:
		return "message"
	default:
		return "unknown"
	}
}
