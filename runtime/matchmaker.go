package runtime

import (
	"log/slog"

	"pair-chat/domain"
)

// MatchResult is the outcome of a pairing attempt.
// Waiting is true when the requester occupies the waiting slot after the attempt.
type MatchResult struct {
	Matched   bool
	Waiting   bool
	PartnerID domain.ClientID
	SessionID domain.SessionID
	Self      Connection
	Partner   Connection
}

// Matchmaker pairs clients through a single waiting slot: the first waiter gets
// the next arrival. Fairness beyond that is not guaranteed.
type Matchmaker struct {
	log          *slog.Logger
	registry     *Registry
	sessions     *SessionManager
	newSessionID func() domain.SessionID
}

func NewMatchmaker(log *slog.Logger, registry *Registry, sessions *SessionManager) *Matchmaker {
	return &Matchmaker{
		log:          log,
		registry:     registry,
		sessions:     sessions,
		newSessionID: domain.NewSessionID,
	}
}

// AttemptMatch either pairs id with the waiting client or installs id as the new waiter.
// Reading the slot, checking it and claiming or pairing happen under the registry
// lock, so two concurrent attempts can never claim the same waiter.
func (m *Matchmaker) AttemptMatch(id domain.ClientID) MatchResult {
	r := m.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	self, ok := r.clients[id]
	if !ok || self.partner != "" {
		return MatchResult{}
	}

	waiting := r.waiting
	if waiting == "" || !r.isFreeLocked(waiting) {
		if waiting != "" {
			m.log.Debug("Replacing stale waiting client", "stale", waiting, "client_id", id)
		}
		r.waiting = id
		return MatchResult{Waiting: true, Self: r.snapshotLocked(self)}
	}

	if waiting == id {
		return MatchResult{Waiting: true, Self: r.snapshotLocked(self)}
	}

	other := r.clients[waiting]
	r.waiting = ""
	sessionID := m.newSessionID()
	self.partner, self.session = other.id, sessionID
	other.partner, other.session = self.id, sessionID

	// Sessions has its own lock, always taken after the registry lock.
	m.sessions.Open(sessionID, other.id, self.id, other.enrichment, self.enrichment)

	return MatchResult{
		Matched:   true,
		PartnerID: other.id,
		SessionID: sessionID,
		Self:      r.snapshotLocked(self),
		Partner:   r.snapshotLocked(other),
	}
}
