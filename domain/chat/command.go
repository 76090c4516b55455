// Package chat defines the closed message vocabulary exchanged with each client.
//
// Inbound messages (client -> server) and outbound messages (server -> client) are
// sealed sum types: only the types declared in this package implement them, so every
// type switch over them has a known, finite set of cases.
package chat

type Kind string

const (
	KindStart         Kind = "start"
	KindNext          Kind = "next"
	KindDisconnect    Kind = "disconnect"
	KindChat          Kind = "chat"
	KindMatched       Kind = "matched"
	KindSystem        Kind = "system"
	KindEnded         Kind = "ended"
	KindDisconnectAck Kind = "disconnect_ack"
	KindCounts        Kind = "counts"
)

// Inbound is a message received from a client.
type Inbound interface {
	Kind() Kind
	inbound()
}

// Start requests matchmaking.
type Start struct{}

// Next leaves the current pairing and requeues.
type Next struct{}

// Disconnect is an explicit leave.
type Disconnect struct{}

// Chat is text relayed between partners. It travels in both directions.
type Chat struct {
	Text string
}

func (Start) Kind() Kind      { return KindStart }
func (Next) Kind() Kind       { return KindNext }
func (Disconnect) Kind() Kind { return KindDisconnect }
func (Chat) Kind() Kind       { return KindChat }

func (Start) inbound()      {}
func (Next) inbound()       {}
func (Disconnect) inbound() {}
func (Chat) inbound()       {}
