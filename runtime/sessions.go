package runtime

import (
	"sync"
	"time"

	"pair-chat/contract"
	"pair-chat/domain"
)

// SessionManager tracks active two-party sessions.
// Persistence is delegated to the Recorder, which never blocks.
type SessionManager struct {
	mu       sync.Mutex
	active   map[domain.SessionID]*domain.Session
	opened   uint64
	closed   uint64
	recorder contract.Recorder
	clock    func() time.Time
}

func NewSessionManager(recorder contract.Recorder) *SessionManager {
	return &SessionManager{
		active:   make(map[domain.SessionID]*domain.Session),
		recorder: recorder,
		clock:    time.Now,
	}
}

// Open records the start of a session between a and b.
// It refuses a self-session and an id that is already active.
func (s *SessionManager) Open(id domain.SessionID, a, b domain.ClientID, enrichmentA, enrichmentB domain.Enrichment) (domain.Session, bool) {
	if a == b {
		return domain.Session{}, false
	}

	s.mu.Lock()
	if existing, ok := s.active[id]; ok {
		s.mu.Unlock()
		return *existing, false
	}
	session := &domain.Session{
		ID:           id,
		Participants: [2]domain.ClientID{a, b},
		Enrichment:   [2]domain.Enrichment{enrichmentA, enrichmentB},
		StartedAt:    s.clock(),
	}
	s.active[id] = session
	s.opened++
	snapshot := *session
	s.mu.Unlock()

	s.recorder.RecordSessionStart(snapshot)
	return snapshot, true
}

// Close ends a session. It is idempotent: only the first call for an active
// session sets the end time and reaches the Recorder.
func (s *SessionManager) Close(id domain.SessionID) (domain.Session, bool) {
	s.mu.Lock()
	session, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return domain.Session{}, false
	}
	endedAt := s.clock()
	session.EndedAt = &endedAt
	delete(s.active, id)
	s.closed++
	snapshot := *session
	s.mu.Unlock()

	s.recorder.RecordSessionEnd(id, endedAt)
	return snapshot, true
}

// Get returns an active session.
func (s *SessionManager) Get(id domain.SessionID) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.active[id]
	if !ok {
		return domain.Session{}, false
	}
	return *session, true
}

func (s *SessionManager) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Stats returns the number of sessions opened and closed since start.
func (s *SessionManager) Stats() (opened uint64, closed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}
