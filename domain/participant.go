// Package domain contains core concepts of the pairing system.
// This file defines participants (anonymous clients) and their connection states.
// No runtime, network, or UI logic should be added here.
package domain

// ClientID is the opaque, caller-supplied identifier of a client.
// It stays stable across reconnects from the same caller.
type ClientID string

// Enrichment carries the IP/geo details attached to a connection at admit time.
// The core passes it through to the persistence collaborator and never inspects it.
type Enrichment struct {
	IP        string `json:"ip,omitempty"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ConnState is the per-connection protocol state.
type ConnState int

const (
	StateIdle ConnState = iota
	StateWaiting
	StatePaired
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaiting:
		return "WAITING"
	case StatePaired:
		return "PAIRED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
