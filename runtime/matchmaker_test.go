package runtime

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"pair-chat/domain"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func TestMatchmaker_First_Waits_Second_Matches(t *testing.T) {
	req := require.New(t)
	registry, sessions, matchmaker, _ := newTestEngine(t)
	admit(registry, "A")
	admit(registry, "B")

	// When A then B attempt a match
	first := matchmaker.AttemptMatch("A")
	second := matchmaker.AttemptMatch("B")

	// Then A waited and B was matched with A
	req.True(first.Waiting)
	req.False(first.Matched)
	req.True(second.Matched)
	req.Equal(domain.ClientID("A"), second.PartnerID)
	req.Equal(domain.ClientID("A"), second.Partner.ClientID)
	req.NotEmpty(second.SessionID)

	a, _ := registry.Lookup("A")
	b, _ := registry.Lookup("B")
	req.Equal(domain.ClientID("B"), a.PartnerID)
	req.Equal(domain.ClientID("A"), b.PartnerID)
	req.Equal(a.SessionID, b.SessionID)
	_, waiting := registry.Waiting()
	req.False(waiting)

	session, ok := sessions.Get(second.SessionID)
	req.True(ok)
	req.Equal([2]domain.ClientID{"A", "B"}, session.Participants)
}

func TestMatchmaker_Self_Match_Prevented(t *testing.T) {
	req := require.New(t)
	registry, sessions, matchmaker, _ := newTestEngine(t)
	admit(registry, "A")

	// When A asks twice
	matchmaker.AttemptMatch("A")
	again := matchmaker.AttemptMatch("A")

	// Then A still waits and no session exists
	req.False(again.Matched)
	req.True(again.Waiting)
	waiting, _ := registry.Waiting()
	req.Equal(domain.ClientID("A"), waiting)
	req.Zero(sessions.ActiveCount())
}

func TestMatchmaker_Unregistered_Or_Partnered_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry, _, matchmaker, _ := newTestEngine(t)

	// Given an unknown client
	// Then nothing happens
	req.Equal(MatchResult{}, matchmaker.AttemptMatch("ghost"))
	_, waiting := registry.Waiting()
	req.False(waiting)

	// Given A and B are paired
	admit(registry, "A")
	admit(registry, "B")
	matchmaker.AttemptMatch("A")
	matchmaker.AttemptMatch("B")

	// Then A asking again changes nothing
	result := matchmaker.AttemptMatch("A")
	req.False(result.Matched)
	req.False(result.Waiting)
}

func TestMatchmaker_Stale_Waiter_Replaced(t *testing.T) {
	req := require.New(t)
	registry, _, matchmaker, _ := newTestEngine(t)
	admit(registry, "A")
	admit(registry, "B")
	matchmaker.AttemptMatch("A")

	// Given the waiting slot points at a client that is gone
	registry.mu.Lock()
	delete(registry.clients, "A")
	registry.mu.Unlock()

	// When B looks for a partner
	result := matchmaker.AttemptMatch("B")

	// Then B takes the slot instead of pairing with a ghost
	req.False(result.Matched)
	req.True(result.Waiting)
	waiting, _ := registry.Waiting()
	req.Equal(domain.ClientID("B"), waiting)
}

// Many clients connecting, matching, leaving and coming back concurrently must never
// break symmetry, pair a client with itself, or leave a dirty waiting slot.
func TestMatchmaker_Concurrent_Invariants(t *testing.T) {
	req := require.New(t)
	registry, sessions, matchmaker, _ := newTestEngine(t)

	const clients = 64
	const rounds = 200

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ClientID(fmt.Sprintf("client-%d", i))
			conn, _ := admit(registry, id)
			for range rounds {
				switch rand.IntN(4) {
				case 0, 1:
					matchmaker.AttemptMatch(id)
				case 2:
					if departure := registry.Unpair(id); departure != nil {
						sessions.Close(departure.SessionID)
					}
				case 3:
					if departure, ok := registry.Remove(conn); ok && departure != nil {
						sessions.Close(departure.SessionID)
					}
					conn, _ = admit(registry, id)
				}
			}
		}(i)
	}
	wg.Wait()

	// Then at quiescence every pairing is symmetric and well formed
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for id, c := range registry.clients {
		if c.partner == "" {
			req.Empty(c.session, "client %s has a session without partner", id)
			continue
		}
		req.NotEqual(id, c.partner, "client %s paired with itself", id)
		p, ok := registry.clients[c.partner]
		req.True(ok, "client %s paired with unregistered %s", id, c.partner)
		req.Equal(id, p.partner)
		req.Equal(c.session, p.session)
	}
	if registry.waiting != "" {
		w, ok := registry.clients[registry.waiting]
		req.True(ok)
		req.Empty(w.partner)
	}
}
