package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pair-chat/auth"
	"pair-chat/domain"
	pcerrors "pair-chat/errors"
	"pair-chat/mocks"
	"pair-chat/observability"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/services"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixedStats struct{}

func (fixedStats) Stats() runtime.EngineStats {
	return runtime.EngineStats{Online: 3, Idle: 1, ActiveSessions: 1}
}

type fixedProcess struct{}

func (fixedProcess) Latest() observability.ProcessStats {
	return observability.ProcessStats{PID: 42}
}

const password = "let-me-in"

func newAdmin(t *testing.T) (http.Handler, *mocks.MockIRecordRepository) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	issuer := auth.NewTokenIssuer("a-secret-long-enough-for-hs256", time.Hour)
	records := mocks.NewMockIRecordRepository(gomock.NewController(t))
	server := NewServer(log, services.NewAuthService(hash, issuer), issuer, records, fixedStats{}, fixedProcess{}, 10)
	return server.Handler(), records
}

func login(t *testing.T, handler http.Handler, pwd string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(auth.LoginRequest{Password: pwd})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body)))
	return w
}

func get(handler http.Handler, path, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func token(t *testing.T, handler http.Handler) string {
	t.Helper()
	w := login(t, handler, password)
	require.Equal(t, http.StatusOK, w.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAdmin_Login(t *testing.T) {
	req := require.New(t)
	handler, _ := newAdmin(t)

	req.Equal(http.StatusUnauthorized, login(t, handler, "wrong").Code)
	req.Equal(http.StatusUnauthorized, login(t, handler, "").Code)
	token(t, handler)
}

func TestAdmin_Stats_Requires_Token(t *testing.T) {
	req := require.New(t)
	handler, _ := newAdmin(t)

	// Given no token
	req.Equal(http.StatusUnauthorized, get(handler, "/admin/stats", "").Code)

	// When logged in
	w := get(handler, "/admin/stats", token(t, handler))

	// Then the stats come back
	req.Equal(http.StatusOK, w.Code)
	var resp statsResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Equal(3, resp.Engine.Online)
	req.Equal(int32(42), resp.Process.PID)
}

func TestAdmin_Sessions(t *testing.T) {
	req := require.New(t)
	handler, records := newAdmin(t)
	at := time.Now().UTC().Truncate(time.Second)

	// Given the repository holds one session, and the limit is capped
	records.EXPECT().RecentSessions(10).Return([]repositories.SessionRecord{{
		ID:           "s1",
		Participants: [2]domain.ClientID{"alice", "bob"},
		Enrichment:   [2]domain.Enrichment{{Country: "FR"}, {}},
		StartedAt:    at,
	}}, nil)

	w := get(handler, "/admin/sessions?limit=500", token(t, handler))

	req.Equal(http.StatusOK, w.Code)
	var resp []sessionView
	req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	req.Len(resp, 1)
	req.Equal(domain.SessionID("s1"), resp[0].ID)
	req.Equal("FR", resp[0].Enrichment[0].Country)
	req.Nil(resp[0].EndedAt)
}

func TestAdmin_Messages(t *testing.T) {
	req := require.New(t)
	handler, records := newAdmin(t)
	tok := token(t, handler)

	t.Run("unknown session", func(t *testing.T) {
		records.EXPECT().Session(domain.SessionID("nope")).Return(repositories.SessionRecord{}, pcerrors.ErrSessionNotFound)

		req.Equal(http.StatusNotFound, get(handler, "/admin/sessions/nope/messages", tok).Code)
	})

	t.Run("messages of a session", func(t *testing.T) {
		records.EXPECT().Session(domain.SessionID("s1")).Return(repositories.SessionRecord{ID: "s1"}, nil)
		records.EXPECT().Messages(domain.SessionID("s1"), 2).Return([]repositories.MessageRecord{
			{SessionID: "s1", SenderID: "alice", Text: "hi", Lang: "en"},
		}, nil)

		w := get(handler, "/admin/sessions/s1/messages?limit=2", tok)

		req.Equal(http.StatusOK, w.Code)
		var resp []messageView
		req.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		req.Equal([]messageView{{SenderID: "alice", Text: "hi", Lang: "en", At: time.Time{}}}, resp)
	})
}
