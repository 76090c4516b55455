package services

import (
	"log/slog"
	"sync"
	"testing"

	"pair-chat/domain"
	"pair-chat/domain/chat"
	"pair-chat/domain/event"
	pcerrors "pair-chat/errors"
	"pair-chat/runtime"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// fakeOutbox keeps every message it receives.
type fakeOutbox struct {
	mu       sync.Mutex
	messages []chat.Outbound
	closed   bool
}

func (o *fakeOutbox) Send(msg chat.Outbound) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return pcerrors.ErrOutboxClosed
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *fakeOutbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// received returns the messages other than presence counts, and forgets them.
func (o *fakeOutbox) received() []chat.Outbound {
	o.mu.Lock()
	defer o.mu.Unlock()
	got := lo.Filter(o.messages, func(msg chat.Outbound, _ int) bool {
		_, isCounts := msg.(chat.Counts)
		return !isCounts
	})
	o.messages = nil
	return got
}

func (o *fakeOutbox) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

type peer struct {
	conn   runtime.Connection
	outbox *fakeOutbox
}

func newService(t *testing.T) (*PairingService, *runtime.Engine) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	engine := runtime.NewEngine(log, runtime.EngineConfig{RecorderBufferSize: 1024}, nil)
	return NewPairingService(log, engine), engine
}

func connect(service *PairingService, id domain.ClientID) peer {
	outbox := &fakeOutbox{}
	conn := service.Connect(id, outbox, domain.Enrichment{IP: "127.0.0.1"})
	return peer{conn: conn, outbox: outbox}
}

func TestPairingService_Scenario_Three_Clients_Start(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	c := connect(service, "C")

	// When A, B and C send start in order
	req.False(service.Handle(a.conn, chat.Start{}))
	req.False(service.Handle(b.conn, chat.Start{}))
	req.False(service.Handle(c.conn, chat.Start{}))

	// Then A and B are paired and C waits
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeSearching}, chat.Matched{}}, a.outbox.received())
	req.Equal([]chat.Outbound{chat.Matched{}}, b.outbox.received())
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeSearching}}, c.outbox.received())

	registry := engine.Registry()
	foundA, _ := registry.Lookup("A")
	foundB, _ := registry.Lookup("B")
	req.Equal(domain.ClientID("B"), foundA.PartnerID)
	req.Equal(domain.ClientID("A"), foundB.PartnerID)
	waiting, _ := registry.Waiting()
	req.Equal(domain.ClientID("C"), waiting)

	// When A sends start again
	service.Handle(a.conn, chat.Start{})
	// Then A is told it is already matched
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeAlreadyMatched}}, a.outbox.received())
}

func TestPairingService_Scenario_Next(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	foundA, _ := engine.Registry().Lookup("A")
	sessionID := foundA.SessionID
	a.outbox.received()
	b.outbox.received()

	// When A asks for the next partner
	service.Handle(a.conn, chat.Next{})

	// Then B is told the session ended, the session is closed and A waits
	req.Equal([]chat.Outbound{chat.Ended{}}, b.outbox.received())
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeSearching}}, a.outbox.received())
	_, active := engine.Sessions().Get(sessionID)
	req.False(active)
	waiting, _ := engine.Registry().Waiting()
	req.Equal(domain.ClientID("A"), waiting)

	// When C arrives
	c := connect(service, "C")
	service.Handle(c.conn, chat.Start{})

	// Then C is paired with A
	req.Equal([]chat.Outbound{chat.Matched{}}, a.outbox.received())
	req.Equal([]chat.Outbound{chat.Matched{}}, c.outbox.received())
	req.Empty(b.outbox.received())
}

func TestPairingService_Next_Pairs_With_Waiting_Client(t *testing.T) {
	req := require.New(t)
	service, _ := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	c := connect(service, "C")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	service.Handle(c.conn, chat.Start{})
	a.outbox.received()
	c.outbox.received()

	// When A skips B while C waits
	service.Handle(a.conn, chat.Next{})

	// Then A is immediately paired with C
	req.Equal([]chat.Outbound{chat.Matched{}}, a.outbox.received())
	req.Equal([]chat.Outbound{chat.Matched{}}, c.outbox.received())
}

func TestPairingService_Scenario_Channel_Loss(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	c := connect(service, "C")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	service.Handle(c.conn, chat.Start{})
	b.outbox.received()

	// When A's channel drops, and the cleanup runs twice
	service.Leave(a.conn)
	service.Leave(a.conn)

	// Then B receives exactly one ended and C still waits
	req.Equal([]chat.Outbound{chat.Ended{}}, b.outbox.received())
	_, ok := engine.Registry().Lookup("A")
	req.False(ok)
	waiting, _ := engine.Registry().Waiting()
	req.Equal(domain.ClientID("C"), waiting)
	req.True(a.outbox.isClosed())
	req.Zero(engine.Sessions().ActiveCount())
}

func TestPairingService_Scenario_Start_Then_Disconnect(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	service.Handle(a.conn, chat.Start{})
	a.outbox.received()

	// When A disconnects before anyone else comes
	closeChannel := service.Handle(a.conn, chat.Disconnect{})

	// Then the slot is empty, no session ever existed and A got its ack
	req.True(closeChannel)
	_, waiting := engine.Registry().Waiting()
	req.False(waiting)
	opened, _ := engine.Sessions().Stats()
	req.Zero(opened)
	req.Equal([]chat.Outbound{chat.DisconnectAck{}}, a.outbox.received())
	req.True(a.outbox.isClosed())

	// When the channel loss cleanup follows
	service.Leave(a.conn)
	// Then nothing else happens
	req.Zero(engine.Registry().OnlineCount())
}

func TestPairingService_Disconnect_Ends_Session(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	a.outbox.received()
	b.outbox.received()

	// When B disconnects
	req.True(service.Handle(b.conn, chat.Disconnect{}))

	// Then A gets ended and is idle again
	req.Equal([]chat.Outbound{chat.Ended{}}, a.outbox.received())
	req.Equal([]chat.Outbound{chat.DisconnectAck{}}, b.outbox.received())
	foundA, _ := engine.Registry().Lookup("A")
	req.Equal(domain.StateIdle, foundA.State())

	// When B's reader sends more after the disconnect
	// Then the channel is told to close
	req.True(service.Handle(b.conn, chat.Chat{Text: "late"}))
	req.Empty(a.outbox.received())
}

func TestPairingService_Relay(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	c := connect(service, "C")

	// When C chats before being matched
	service.Handle(c.conn, chat.Chat{Text: "anyone?"})
	// Then C is told it is not matched yet
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeNotMatched}}, c.outbox.received())

	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	a.outbox.received()
	b.outbox.received()

	// When A sends a message to B
	service.Handle(a.conn, chat.Chat{Text: "  hi there  "})

	// Then only B receives it, verbatim
	req.Equal([]chat.Outbound{chat.Chat{Text: "  hi there  "}}, b.outbox.received())
	req.Empty(a.outbox.received())
	req.Empty(c.outbox.received())

	// And the relay was recorded
	var relayed *event.MessageRelayed
	for relayed == nil {
		if m, ok := (<-engine.Recorder().Events()).(event.MessageRelayed); ok {
			relayed = &m
		}
	}
	req.Equal("  hi there  ", relayed.Text)
	req.Equal(domain.ClientID("A"), relayed.SenderID)
}

func TestPairingService_Relay_To_Dead_Partner_Cleans_Up(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	a.outbox.received()

	// Given B's outbox died without a cleanup
	b.outbox.Close()

	// When A sends a message
	service.Handle(a.conn, chat.Chat{Text: "hello?"})

	// Then B is removed and A only sees a normal ended
	req.Equal([]chat.Outbound{chat.Ended{}}, a.outbox.received())
	_, ok := engine.Registry().Lookup("B")
	req.False(ok)
	req.Zero(engine.Sessions().ActiveCount())
}

func TestPairingService_Duplicate_Client_Replaces_Previous(t *testing.T) {
	req := require.New(t)
	service, engine := newService(t)
	a := connect(service, "A")
	b := connect(service, "B")
	service.Handle(a.conn, chat.Start{})
	service.Handle(b.conn, chat.Start{})
	a.outbox.received()
	b.outbox.received()

	// When A connects again from another tab
	again := connect(service, "A")

	// Then the old channel is told and closed, and B's session ended
	req.Equal([]chat.Outbound{chat.System{Text: chat.NoticeReplaced}}, a.outbox.received())
	req.True(a.outbox.isClosed())
	req.Equal([]chat.Outbound{chat.Ended{}}, b.outbox.received())
	req.Zero(engine.Sessions().ActiveCount())

	// When the old channel's reader still delivers a frame
	// Then it is ignored and the new admission stays registered
	req.True(service.Handle(a.conn, chat.Start{}))
	service.Leave(a.conn)
	found, ok := engine.Registry().Lookup("A")
	req.True(ok)
	req.Equal(again.conn.Generation, found.Generation)
}

func TestPairingService_Reject_And_Counts(t *testing.T) {
	req := require.New(t)
	service, _ := newService(t)
	a := connect(service, "A")
	connect(service, "B")

	// When A sends garbage
	service.Reject(a.conn, pcerrors.ErrUnknownMessage)
	service.Reject(a.conn, pcerrors.ErrEmptyMessage)

	// Then A gets notices and stays connected
	req.Equal([]chat.Outbound{
		chat.System{Text: "unknown message type"},
		chat.System{Text: "empty message"},
	}, a.outbox.received())
	req.Equal(chat.Counts{Online: 2, Idle: 2}, service.Counts())
}
