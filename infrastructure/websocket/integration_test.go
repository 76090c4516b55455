package websocket

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"pair-chat/domain/chat"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/services"
	"pair-chat/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// Test_Scenario runs a full conversation through sockets, the engine and badger.
func Test_Scenario(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	defer db.Close()

	log := logs.GetLoggerFromLevel(slog.LevelError)
	records := repositories.NewRecordRepository(db, log)
	engine := runtime.NewEngine(log, runtime.EngineConfig{
		RecorderBufferSize: 64,
		SinkTimeout:        time.Second,
		RestartInterval:    10 * time.Millisecond,
	}, nil)
	engine.Add(sink.NewDiskSink(records, log), sink.NewLogSink(log))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Start(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	server := NewServer(log, defaultConfig(), services.NewPairingService(log, engine), HeaderLocator{})
	h := &harness{engine: engine, server: server, http: httptest.NewServer(server)}
	defer func() {
		server.Close()
		h.http.Close()
	}()

	// 1. Alice and Bob meet
	alice := h.dial(t, "alice")
	bob := h.dial(t, "bob")
	send(t, alice, chat.Start{})
	req.Equal(chat.System{Text: chat.NoticeSearching}, next(t, alice))
	send(t, bob, chat.Start{})
	req.Equal(chat.Matched{}, next(t, alice))
	req.Equal(chat.Matched{}, next(t, bob))

	// 2. They talk
	send(t, alice, chat.Chat{Text: "Bonjour, comment allez-vous aujourd'hui ?"})
	req.Equal(chat.Chat{Text: "Bonjour, comment allez-vous aujourd'hui ?"}, next(t, bob))
	send(t, bob, chat.Chat{Text: "Very well thank you, and how are you doing today?"})
	req.Equal(chat.Chat{Text: "Very well thank you, and how are you doing today?"}, next(t, alice))

	// 3. Bob leaves
	send(t, bob, chat.Disconnect{})
	req.Equal(chat.DisconnectAck{}, next(t, bob))
	req.Equal(chat.Ended{}, next(t, alice))

	// Then the whole conversation is persisted
	var session repositories.SessionRecord
	req.Eventually(func() bool {
		sessions, err := records.RecentSessions(10)
		if err != nil || len(sessions) != 1 || sessions[0].EndedAt == nil {
			return false
		}
		session = sessions[0]
		return true
	}, 2*time.Second, 10*time.Millisecond)
	req.ElementsMatch([]string{"alice", "bob"}, []string{string(session.Participants[0]), string(session.Participants[1])})

	req.Eventually(func() bool {
		messages, err := records.Messages(session.ID, 0)
		return err == nil && len(messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	req.Eventually(func() bool {
		connections, err := records.Connections(0)
		return err == nil && len(connections) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	req.Zero(engine.Stats().ActiveSessions)
}
