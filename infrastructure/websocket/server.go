// Package websocket adapts gorilla/websocket connections to the pairing service.
// Each connection gets one reader goroutine, one writer goroutine draining its
// Outbox, and a pinger.
package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pair-chat/auth"
	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/chat"
	pcerrors "pair-chat/errors"
	"pair-chat/runtime"
	"pair-chat/services"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Config struct {
	OutboxSize     int
	MaxMessageSize int64
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	AllowedOrigin  string
}

type Server struct {
	log      *slog.Logger
	cfg      Config
	service  services.IPairingService
	locator  contract.Locator
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	sockets  map[*websocket.Conn]struct{}
}

func NewServer(log *slog.Logger, cfg Config, service services.IPairingService, locator contract.Locator) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		log:     log,
		cfg:     cfg,
		service: service,
		locator: locator,
		ctx:     ctx,
		cancel:  cancel,
		sockets: make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// ServeHTTP upgrades GET /ws?client_id=<id>. A missing id gets a generated one.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	} else if err := auth.ValidateClientID(clientID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	enrichment := s.locator.Locate(r)

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error.
		s.log.Debug("Upgrade failed", "client_id", clientID, "error", err)
		return
	}
	if !s.track(ws) {
		_ = ws.Close()
		return
	}

	outbox := runtime.NewOutbox(s.cfg.OutboxSize)
	conn := s.service.Connect(domain.ClientID(clientID), outbox, enrichment)

	s.wg.Add(3)
	go s.write(ws, outbox)
	go s.ping(ws, outbox)
	go s.read(ws, conn, outbox)
}

// Close drops every open connection and waits for their goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	s.cancel()
	for ws := range s.sockets {
		_ = ws.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) read(ws *websocket.Conn, conn runtime.Connection, outbox *runtime.Outbox) {
	defer s.wg.Done()
	defer func() {
		s.service.Leave(conn)
		outbox.Close()
	}()

	ws.SetReadLimit(s.cfg.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.Debug("Connection lost", "client_id", conn.ClientID, "error", err)
			}
			return
		}

		msg, err := decodeFrame(messageType, data)
		if err != nil {
			s.service.Reject(conn, err)
			continue
		}
		if closeChannel := s.service.Handle(conn, msg); closeChannel {
			return
		}
	}
}

// write owns the socket close: it flushes the outbox, then sends a close frame.
func (s *Server) write(ws *websocket.Conn, outbox *runtime.Outbox) {
	defer s.wg.Done()
	defer s.untrack(ws)

	err := outbox.Run(s.ctx, func(msg chat.Outbound) error {
		data, err := chat.Encode(msg)
		if err != nil {
			return err
		}
		if err := ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
		return ws.WriteMessage(websocket.TextMessage, data)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug("Write failed", "error", err)
	}

	closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.WriteControl(websocket.CloseMessage, closeFrame, time.Now().Add(s.cfg.WriteTimeout))
	_ = ws.Close()
}

func (s *Server) ping(ws *websocket.Conn, outbox *runtime.Outbox) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PongTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-outbox.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				outbox.Close()
				return
			}
		}
	}
}

// decodeFrame accepts text frames and binary frames that hold text.
func decodeFrame(messageType int, data []byte) (chat.Inbound, error) {
	if messageType == websocket.BinaryMessage && !isText(data) {
		return nil, pcerrors.ErrUnsupportedPayload
	}
	return chat.DecodeInbound(data)
}

func isText(data []byte) bool {
	for mtype := mimetype.Detect(data); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("text/plain") {
			return true
		}
	}
	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "" || s.cfg.AllowedOrigin == "*" {
		return true
	}
	return r.Header.Get("Origin") == s.cfg.AllowedOrigin
}

func (s *Server) track(ws *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.sockets[ws] = struct{}{}
	return true
}

func (s *Server) untrack(ws *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, ws)
}
