// Package event defines the facts published by the core to the persistence collaborator.
package event

import (
	"time"

	"pair-chat/domain"
)

type DomainEvent interface {
	OccurredAt() time.Time
}

type ConnectKind string

const (
	Connected    ConnectKind = "connected"
	Disconnected ConnectKind = "disconnected"
	Replaced     ConnectKind = "replaced"
)

// ConnectionRecorded is emitted when a channel is admitted, leaves, or is evicted
// by a newer connection using the same client id.
type ConnectionRecorded struct {
	Kind       ConnectKind
	ClientID   domain.ClientID
	SessionID  domain.SessionID
	Enrichment domain.Enrichment
	At         time.Time
}

func (e ConnectionRecorded) OccurredAt() time.Time { return e.At }

type SessionStarted struct {
	Session domain.Session
}

func (e SessionStarted) OccurredAt() time.Time { return e.Session.StartedAt }

type SessionEnded struct {
	SessionID domain.SessionID
	At        time.Time
}

func (e SessionEnded) OccurredAt() time.Time { return e.At }

// MessageRelayed is emitted once a chat message has been handed to the partner.
type MessageRelayed struct {
	SessionID domain.SessionID
	SenderID  domain.ClientID
	Text      string
	At        time.Time
}

func (e MessageRelayed) OccurredAt() time.Time { return e.At }
