package services

import (
	"errors"
	"log/slog"

	"pair-chat/contract"
	"pair-chat/domain"
	"pair-chat/domain/chat"
	"pair-chat/domain/event"
	pcerrors "pair-chat/errors"
	"pair-chat/runtime"
)

// IPairingService is the protocol handler a transport drives for each connection.
// Handle must be called sequentially per connection, in frame arrival order.
type IPairingService interface {
	Connect(id domain.ClientID, outbox contract.Outbox, enrichment domain.Enrichment) runtime.Connection
	Handle(conn runtime.Connection, msg chat.Inbound) (closeChannel bool)
	Reject(conn runtime.Connection, err error)
	Leave(conn runtime.Connection)
	Counts() chat.Counts
}

type PairingService struct {
	log        *slog.Logger
	registry   *runtime.Registry
	sessions   *runtime.SessionManager
	matchmaker *runtime.Matchmaker
	recorder   contract.Recorder
	inflator   contract.Inflator
}

func NewPairingService(log *slog.Logger, engine *runtime.Engine) *PairingService {
	return &PairingService{
		log:        log,
		registry:   engine.Registry(),
		sessions:   engine.Sessions(),
		matchmaker: engine.Matchmaker(),
		recorder:   engine.Recorder(),
		inflator:   engine.Inflator(),
	}
}

// Connect admits a new channel. An older channel using the same client id is
// told it was replaced and closed; its partner, if any, gets "ended".
func (s *PairingService) Connect(id domain.ClientID, outbox contract.Outbox, enrichment domain.Enrichment) runtime.Connection {
	conn, eviction := s.registry.Admit(id, outbox, enrichment)
	if eviction != nil {
		previous := eviction.Previous
		s.log.Info("Client replaced by a newer connection", "client_id", id, "generation", previous.Generation)
		_ = previous.Outbox.Send(chat.System{Text: chat.NoticeReplaced})
		previous.Outbox.Close()
		s.recorder.RecordConnect(event.Replaced, id, departedSession(eviction.Departure), previous.Enrichment)
		s.end(eviction.Departure)
	}

	s.recorder.RecordConnect(event.Connected, id, "", enrichment)
	s.send(conn, s.Counts())
	s.log.Debug("Client connected", "client_id", id, "generation", conn.Generation)
	return conn
}

// Handle applies one inbound message. It returns true when the channel must be
// closed once the outbox is flushed.
func (s *PairingService) Handle(conn runtime.Connection, msg chat.Inbound) bool {
	current, ok := s.registry.Current(conn)
	if !ok {
		// Evicted or already cleaned up.
		return true
	}

	switch m := msg.(type) {
	case chat.Start:
		if current.Paired() {
			s.send(current, chat.System{Text: chat.NoticeAlreadyMatched})
			return false
		}
		s.match(current)
	case chat.Next:
		if departure := s.registry.Unpair(current.ClientID); departure != nil {
			s.log.Debug("Client skipped partner", "client_id", current.ClientID, "session_id", departure.SessionID)
			s.end(departure)
		}
		if refreshed, ok := s.registry.Current(conn); ok {
			s.match(refreshed)
		}
	case chat.Disconnect:
		departure, removed := s.registry.Remove(conn)
		if !removed {
			return true
		}
		_ = current.Outbox.Send(chat.DisconnectAck{})
		current.Outbox.Close()
		s.recorder.RecordConnect(event.Disconnected, current.ClientID, departedSession(departure), current.Enrichment)
		s.end(departure)
		return true
	case chat.Chat:
		s.relay(current, m.Text)
	default:
		s.Reject(current, pcerrors.ErrUnknownMessage)
	}
	return false
}

// Reject reports a protocol error to the sender. The channel stays open.
func (s *PairingService) Reject(conn runtime.Connection, err error) {
	s.log.Debug("Rejected inbound message", "client_id", conn.ClientID, "error", err)
	s.send(conn, chat.System{Text: rejectNotice(err)})
}

// Leave is the cleanup of a lost channel. It is a no-op when the connection
// was already removed by a disconnect or an eviction.
func (s *PairingService) Leave(conn runtime.Connection) {
	s.drop(conn)
}

func (s *PairingService) Counts() chat.Counts {
	online, idle := s.registry.Counts()
	return chat.Counts{Online: s.inflator.Adjust(online), Idle: idle}
}

func (s *PairingService) match(conn runtime.Connection) {
	result := s.matchmaker.AttemptMatch(conn.ClientID)
	switch {
	case result.Matched:
		s.log.Info("Clients matched",
			"session_id", result.SessionID,
			"client_id", conn.ClientID,
			"partner_id", result.PartnerID)
		partnerErr := result.Partner.Outbox.Send(chat.Matched{})
		selfErr := result.Self.Outbox.Send(chat.Matched{})
		if partnerErr != nil {
			s.drop(result.Partner)
		}
		if selfErr != nil {
			s.drop(result.Self)
		}
	case result.Waiting:
		s.send(conn, chat.System{Text: chat.NoticeSearching})
	}
}

func (s *PairingService) relay(sender runtime.Connection, text string) {
	self, partner, ok := s.registry.Pair(sender.ClientID)
	if !ok {
		s.send(sender, chat.System{Text: chat.NoticeNotMatched})
		return
	}
	if err := partner.Outbox.Send(chat.Chat{Text: text}); err != nil {
		s.log.Debug("Partner unreachable, cleaning up", "client_id", partner.ClientID, "error", err)
		s.drop(partner)
		return
	}
	s.recorder.RecordMessage(self.SessionID, self.ClientID, text)
}

// end closes the session of a torn down pairing and tells the remaining party.
func (s *PairingService) end(departure *runtime.Departure) {
	if departure == nil {
		return
	}
	if _, closed := s.sessions.Close(departure.SessionID); closed {
		s.log.Info("Session ended", "session_id", departure.SessionID)
	}
	if departure.Partner.ClientID != "" {
		s.send(departure.Partner, chat.Ended{})
	}
}

// send delivers a message; a closed outbox means the peer is dead and is cleaned up.
func (s *PairingService) send(conn runtime.Connection, msg chat.Outbound) {
	if conn.Outbox == nil {
		return
	}
	if err := conn.Outbox.Send(msg); err != nil {
		s.drop(conn)
	}
}

func (s *PairingService) drop(conn runtime.Connection) {
	departure, removed := s.registry.Remove(conn)
	if !removed {
		return
	}
	conn.Outbox.Close()
	s.recorder.RecordConnect(event.Disconnected, conn.ClientID, departedSession(departure), conn.Enrichment)
	s.log.Debug("Client left", "client_id", conn.ClientID, "generation", conn.Generation)
	s.end(departure)
}

func departedSession(departure *runtime.Departure) domain.SessionID {
	if departure == nil {
		return ""
	}
	return departure.SessionID
}

func rejectNotice(err error) string {
	switch {
	case errors.Is(err, pcerrors.ErrUnknownMessage):
		return "unknown message type"
	case errors.Is(err, pcerrors.ErrEmptyMessage):
		return "empty message"
	case errors.Is(err, pcerrors.ErrUnsupportedPayload):
		return "unsupported payload"
	default:
		return "invalid message"
	}
}
