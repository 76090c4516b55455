package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"pair-chat/errors"

	"github.com/samber/lo"
)

// Outbound is a message pushed to a client.
type Outbound interface {
	Kind() Kind
	outbound()
}

// Matched tells a client that pairing succeeded.
type Matched struct{}

// System is a status notice, e.g. "searching".
type System struct {
	Text string
}

// Ended tells a client that its partner left.
type Ended struct{}

// DisconnectAck confirms an explicit disconnect.
type DisconnectAck struct{}

// Counts is a presence snapshot.
type Counts struct {
	Online int
	Idle   int
}

func (Matched) Kind() Kind       { return KindMatched }
func (System) Kind() Kind        { return KindSystem }
func (Ended) Kind() Kind         { return KindEnded }
func (DisconnectAck) Kind() Kind { return KindDisconnectAck }
func (Counts) Kind() Kind        { return KindCounts }

func (Matched) outbound()       {}
func (System) outbound()        {}
func (Ended) outbound()         {}
func (DisconnectAck) outbound() {}
func (Counts) outbound()        {}
func (Chat) outbound()          {}

// Notices sent as System messages.
const (
	NoticeSearching      = "searching"
	NoticeNotMatched     = "not matched yet"
	NoticeAlreadyMatched = "already matched"
	NoticeReplaced       = "replaced by a newer connection"
)

// legacyNext is the control string used by the first browser client.
const legacyNext = "__NEXT__"

// envelope is the JSON wire format of every message: {"type": "...", ...}.
type envelope struct {
	Type   Kind    `json:"type"`
	Text   *string `json:"text,omitempty"`
	Online *int    `json:"online,omitempty"`
	Idle   *int    `json:"idle,omitempty"`
}

// DecodeInbound parses a text frame received from a client.
// A frame that is not a JSON envelope is treated as chat text, and the legacy
// "__NEXT__" control string maps to Next.
func DecodeInbound(data []byte) (Inbound, error) {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == legacyNext {
		return Next{}, nil
	}

	var env envelope
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &env) != nil || env.Type == "" {
		return decodeChat(string(data))
	}

	switch env.Type {
	case KindStart:
		return Start{}, nil
	case KindNext:
		return Next{}, nil
	case KindDisconnect:
		return Disconnect{}, nil
	case KindChat:
		return decodeChat(lo.FromPtr(env.Text))
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownMessage, env.Type)
	}
}

func decodeChat(text string) (Inbound, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrEmptyMessage
	}
	return Chat{Text: text}, nil
}

// Encode serializes an outbound message into its JSON envelope.
func Encode(msg Outbound) ([]byte, error) {
	env := envelope{Type: msg.Kind()}
	switch m := msg.(type) {
	case Matched, Ended, DisconnectAck:
	case System:
		env.Text = lo.ToPtr(m.Text)
	case Chat:
		env.Text = lo.ToPtr(m.Text)
	case Counts:
		env.Online = lo.ToPtr(m.Online)
		env.Idle = lo.ToPtr(m.Idle)
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownMessage, msg)
	}
	return json.Marshal(env)
}

// DecodeOutbound parses a frame sent by the server. It is used by clients and tests.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	switch env.Type {
	case KindMatched:
		return Matched{}, nil
	case KindSystem:
		return System{Text: lo.FromPtr(env.Text)}, nil
	case KindEnded:
		return Ended{}, nil
	case KindDisconnectAck:
		return DisconnectAck{}, nil
	case KindChat:
		return Chat{Text: lo.FromPtr(env.Text)}, nil
	case KindCounts:
		return Counts{Online: lo.FromPtr(env.Online), Idle: lo.FromPtr(env.Idle)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownMessage, env.Type)
	}
}

// EncodeInbound serializes a client message. It is used by clients and tests.
func EncodeInbound(msg Inbound) ([]byte, error) {
	env := envelope{Type: msg.Kind()}
	if c, ok := msg.(Chat); ok {
		env.Text = lo.ToPtr(c.Text)
	}
	return json.Marshal(env)
}
