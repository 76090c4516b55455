// Package admin serves the read-only reporting surface: live counters,
// process stats, recent sessions and their messages. Everything but login
// requires an admin bearer token.
package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pair-chat/auth"
	"pair-chat/domain"
	pcerrors "pair-chat/errors"
	"pair-chat/observability"
	"pair-chat/repositories"
	"pair-chat/runtime"
	"pair-chat/services"

	"github.com/samber/lo"
)

type StatsSource interface {
	Stats() runtime.EngineStats
}

type ProcessSource interface {
	Latest() observability.ProcessStats
}

type Server struct {
	log       *slog.Logger
	auth      services.IAuthService
	issuer    *auth.TokenIssuer
	records   repositories.IRecordRepository
	stats     StatsSource
	process   ProcessSource
	listLimit int
	startedAt time.Time
}

func NewServer(log *slog.Logger, authService services.IAuthService, issuer *auth.TokenIssuer,
	records repositories.IRecordRepository, stats StatsSource, process ProcessSource, listLimit int) *Server {
	if listLimit <= 0 {
		listLimit = 50
	}
	return &Server{
		log:       log,
		auth:      authService,
		issuer:    issuer,
		records:   records,
		stats:     stats,
		process:   process,
		listLimit: listLimit,
		startedAt: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", s.login)
	mux.Handle("GET /admin/stats", s.protect(s.getStats))
	mux.Handle("GET /admin/sessions", s.protect(s.listSessions))
	mux.Handle("GET /admin/sessions/{id}/messages", s.protect(s.listMessages))
	return mux
}

func (s *Server) protect(fn http.HandlerFunc) http.Handler {
	return s.issuer.RequireRole(auth.RoleAdmin, fn)
}

type loginResponse struct {
	Token string `json:"token"`
}

type statsResponse struct {
	Engine        runtime.EngineStats        `json:"engine"`
	Process       observability.ProcessStats `json:"process"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
}

type sessionView struct {
	ID           domain.SessionID     `json:"id"`
	Participants [2]domain.ClientID   `json:"participants"`
	Enrichment   [2]domain.Enrichment `json:"enrichment"`
	StartedAt    time.Time            `json:"started_at"`
	EndedAt      *time.Time           `json:"ended_at,omitempty"`
}

type messageView struct {
	SenderID domain.ClientID `json:"sender_id"`
	Text     string          `json:"text"`
	Lang     string          `json:"lang,omitempty"`
	At       time.Time       `json:"at"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body auth.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Login(body.Password)
	switch {
	case err == nil:
		s.writeJSON(w, loginResponse{Token: token.String()})
	case errors.Is(err, pcerrors.ErrInvalidCredentials), errors.Is(err, pcerrors.ErrUnauthorized):
		s.log.Warn("Admin login refused", "ip", r.RemoteAddr)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	default:
		s.log.Error("Admin login failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, statsResponse{
		Engine:        s.stats.Stats(),
		Process:       s.process.Latest(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.RecentSessions(s.limit(r))
	if err != nil {
		s.log.Error("Failed to list sessions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, lo.Map(records, func(record repositories.SessionRecord, _ int) sessionView {
		return sessionView(record)
	}))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	if _, err := s.records.Session(id); err != nil {
		if errors.Is(err, pcerrors.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.log.Error("Failed to read session", "session_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	records, err := s.records.Messages(id, s.limit(r))
	if err != nil {
		s.log.Error("Failed to list messages", "session_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, lo.Map(records, func(record repositories.MessageRecord, _ int) messageView {
		return messageView{SenderID: record.SenderID, Text: record.Text, Lang: record.Lang, At: record.At}
	}))
}

// limit reads ?limit=, capped by the configured list limit.
func (s *Server) limit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 || n > s.listLimit {
		return s.listLimit
	}
	return n
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to write response", "error", err)
	}
}
