package runtime

import (
	"sync"
	"time"

	"pair-chat/contract"
	"pair-chat/domain"

	"github.com/samber/lo"
)

// Connection is a point-in-time snapshot of a registered client.
// Generation identifies one admission: a reconnect under the same ClientID
// gets a new generation, so cleanup of the old channel never touches the new one.
type Connection struct {
	ClientID   domain.ClientID
	PartnerID  domain.ClientID
	SessionID  domain.SessionID
	Enrichment domain.Enrichment
	Outbox     contract.Outbox
	Waiting    bool
	Generation uint64
	AdmittedAt time.Time
}

func (c Connection) Paired() bool {
	return c.PartnerID != ""
}

func (c Connection) State() domain.ConnState {
	switch {
	case c.Paired():
		return domain.StatePaired
	case c.Waiting:
		return domain.StateWaiting
	default:
		return domain.StateIdle
	}
}

// Departure describes a pairing torn down by Remove or Unpair.
// Partner is the zero Connection when the partner was no longer registered.
type Departure struct {
	SessionID domain.SessionID
	Partner   Connection
}

// Eviction describes an older admission replaced by Admit.
type Eviction struct {
	Previous  Connection
	Departure *Departure
}

type client struct {
	id         domain.ClientID
	partner    domain.ClientID
	session    domain.SessionID
	enrichment domain.Enrichment
	outbox     contract.Outbox
	generation uint64
	admittedAt time.Time
}

// Registry is the single source of truth for who is online and who is paired with whom.
// One mutex guards the client map, the waiting slot and every pairing field, so a
// pairing decision (see Matchmaker) is a single critical section.
type Registry struct {
	mu         sync.Mutex
	clients    map[domain.ClientID]*client
	waiting    domain.ClientID
	generation uint64
	clock      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[domain.ClientID]*client),
		clock:   time.Now,
	}
}

// Admit registers a new connection. When the ClientID is already registered the
// newer registration wins: the previous admission is removed exactly like a lost
// channel and returned so the caller can notify and close it.
func (r *Registry) Admit(id domain.ClientID, outbox contract.Outbox, enrichment domain.Enrichment) (Connection, *Eviction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eviction *Eviction
	if previous, ok := r.clients[id]; ok {
		snapshot := r.snapshotLocked(previous)
		eviction = &Eviction{Previous: snapshot, Departure: r.removeLocked(previous)}
	}

	r.generation++
	c := &client{
		id:         id,
		enrichment: enrichment,
		outbox:     outbox,
		generation: r.generation,
		admittedAt: r.clock(),
	}
	r.clients[id] = c
	return r.snapshotLocked(c), eviction
}

// Lookup returns the current admission of a client; absence means it is not connected.
func (r *Registry) Lookup(id domain.ClientID) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return Connection{}, false
	}
	return r.snapshotLocked(c), true
}

// Current reports whether conn is still the live admission of its client.
func (r *Registry) Current(conn Connection) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[conn.ClientID]
	if !ok || c.generation != conn.Generation {
		return Connection{}, false
	}
	return r.snapshotLocked(c), true
}

// Pair returns both sides of an active pairing in one consistent read.
func (r *Registry) Pair(id domain.ClientID) (self Connection, partner Connection, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, found := r.clients[id]
	if !found || c.partner == "" {
		return Connection{}, Connection{}, false
	}
	p, found := r.clients[c.partner]
	if !found {
		return Connection{}, Connection{}, false
	}
	return r.snapshotLocked(c), r.snapshotLocked(p), true
}

// Remove unregisters the admission described by conn. It is idempotent and never
// removes a newer admission of the same ClientID. When the client was paired the
// partner's pairing fields are cleared and returned as a Departure; delivering the
// "ended" notice is up to the caller.
func (r *Registry) Remove(conn Connection) (*Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[conn.ClientID]
	if !ok || c.generation != conn.Generation {
		return nil, false
	}
	return r.removeLocked(c), true
}

// Unpair tears down the pairing of a client without unregistering it.
func (r *Registry) Unpair(id domain.ClientID) *Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return nil
	}
	return r.unpairLocked(c)
}

func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// IdleCount returns the number of clients without a partner.
func (r *Registry) IdleCount() int {
	_, idle := r.Counts()
	return idle
}

// Counts returns online and idle counts from the same instant.
func (r *Registry) Counts() (online int, idle int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idle = lo.CountBy(lo.Values(r.clients), func(c *client) bool {
		return c.partner == ""
	})
	return len(r.clients), idle
}

// Waiting returns the occupant of the waiting slot.
func (r *Registry) Waiting() (domain.ClientID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting, r.waiting != ""
}

// Snapshot returns every registered connection.
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.MapToSlice(r.clients, func(_ domain.ClientID, c *client) Connection {
		return r.snapshotLocked(c)
	})
}

// Outboxes returns the outbox of every registered connection.
func (r *Registry) Outboxes() []contract.Outbox {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.MapToSlice(r.clients, func(_ domain.ClientID, c *client) contract.Outbox {
		return c.outbox
	})
}

func (r *Registry) removeLocked(c *client) *Departure {
	if r.waiting == c.id {
		r.waiting = ""
	}
	departure := r.unpairLocked(c)
	delete(r.clients, c.id)
	return departure
}

func (r *Registry) unpairLocked(c *client) *Departure {
	if c.partner == "" {
		return nil
	}
	departure := &Departure{SessionID: c.session}
	if p, ok := r.clients[c.partner]; ok && p.partner == c.id {
		p.partner, p.session = "", ""
		departure.Partner = r.snapshotLocked(p)
	}
	c.partner, c.session = "", ""
	return departure
}

// isFreeLocked reports whether id is registered and partner-free.
func (r *Registry) isFreeLocked(id domain.ClientID) bool {
	c, ok := r.clients[id]
	return ok && c.partner == ""
}

func (r *Registry) snapshotLocked(c *client) Connection {
	return Connection{
		ClientID:   c.id,
		PartnerID:  c.partner,
		SessionID:  c.session,
		Enrichment: c.enrichment,
		Outbox:     c.outbox,
		Waiting:    r.waiting == c.id,
		Generation: c.generation,
		AdmittedAt: c.admittedAt,
	}
}
