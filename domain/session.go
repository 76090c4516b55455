package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session is the bounded-lifetime relationship between exactly two paired clients.
// EndedAt stays nil while the session is active.
type Session struct {
	ID           SessionID
	Participants [2]ClientID
	Enrichment   [2]Enrichment
	StartedAt    time.Time
	EndedAt      *time.Time
}

func (s Session) Active() bool {
	return s.EndedAt == nil
}

// Partner returns the other participant of the session.
func (s Session) Partner(id ClientID) (ClientID, bool) {
	switch id {
	case s.Participants[0]:
		return s.Participants[1], true
	case s.Participants[1]:
		return s.Participants[0], true
	default:
		return "", false
	}
}
