//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"pair-chat/domain"
	"pair-chat/domain/chat"
	"pair-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker runs until ctx is done. Panics are the supervisor's business.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName returns the type name of the worker, used in supervisor logs.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Outbox is the send capability of a single connection.
// Send never blocks; it fails only once the outbox has been closed.
type Outbox interface {
	Send(msg chat.Outbound) error
	Close()
}

// Recorder is the fire-and-forget persistence collaborator.
// Implementations must return immediately whatever the state of the storage.
type Recorder interface {
	RecordConnect(kind event.ConnectKind, clientID domain.ClientID, sessionID domain.SessionID, enrichment domain.Enrichment)
	RecordSessionStart(session domain.Session)
	RecordSessionEnd(sessionID domain.SessionID, at time.Time)
	RecordMessage(sessionID domain.SessionID, senderID domain.ClientID, text string)
}

// Locator supplies the enrichment attached to a connection at admit time.
type Locator interface {
	Locate(r *http.Request) domain.Enrichment
}

// Inflator adjusts the online count displayed to clients.
type Inflator interface {
	Adjust(online int) int
}
