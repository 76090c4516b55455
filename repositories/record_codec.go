package repositories

import (
	"time"

	"pair-chat/domain"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func enrichmentMap(e domain.Enrichment) map[string]any {
	return map[string]any{
		"ip":         e.IP,
		"country":    e.Country,
		"city":       e.City,
		"user_agent": e.UserAgent,
	}
}

func toEnrichment(s *structpb.Struct) domain.Enrichment {
	return domain.Enrichment{
		IP:        str(s, "ip"),
		Country:   str(s, "country"),
		City:      str(s, "city"),
		UserAgent: str(s, "user_agent"),
	}
}

func sessionMap(record SessionRecord) map[string]any {
	fields := map[string]any{
		"id":           string(record.ID),
		"participants": []any{string(record.Participants[0]), string(record.Participants[1])},
		"enrichment":   []any{enrichmentMap(record.Enrichment[0]), enrichmentMap(record.Enrichment[1])},
		"started_at":   formatTime(record.StartedAt),
	}
	if record.EndedAt != nil {
		fields["ended_at"] = formatTime(*record.EndedAt)
	}
	return fields
}

func toSessionRecord(s *structpb.Struct) (SessionRecord, error) {
	startedAt, err := parseTime(str(s, "started_at"))
	if err != nil {
		return SessionRecord{}, err
	}
	record := SessionRecord{
		ID:        domain.SessionID(str(s, "id")),
		StartedAt: startedAt,
	}
	for i, v := range s.GetFields()["participants"].GetListValue().GetValues() {
		if i < len(record.Participants) {
			record.Participants[i] = domain.ClientID(v.GetStringValue())
		}
	}
	for i, v := range s.GetFields()["enrichment"].GetListValue().GetValues() {
		if i < len(record.Enrichment) {
			record.Enrichment[i] = toEnrichment(v.GetStructValue())
		}
	}
	if ended := str(s, "ended_at"); ended != "" {
		endedAt, err := parseTime(ended)
		if err != nil {
			return SessionRecord{}, err
		}
		record.EndedAt = &endedAt
	}
	return record, nil
}

func toConnectionRecord(s *structpb.Struct) (ConnectionRecord, error) {
	at, err := parseTime(str(s, "at"))
	if err != nil {
		return ConnectionRecord{}, err
	}
	id, err := uuid.Parse(str(s, "id"))
	if err != nil {
		return ConnectionRecord{}, err
	}
	return ConnectionRecord{
		ID:         id,
		Kind:       str(s, "kind"),
		ClientID:   domain.ClientID(str(s, "client_id")),
		SessionID:  domain.SessionID(str(s, "session_id")),
		Enrichment: toEnrichment(s.GetFields()["enrichment"].GetStructValue()),
		At:         at,
	}, nil
}

func toMessageRecord(s *structpb.Struct) (MessageRecord, error) {
	at, err := parseTime(str(s, "at"))
	if err != nil {
		return MessageRecord{}, err
	}
	id, err := uuid.Parse(str(s, "id"))
	if err != nil {
		return MessageRecord{}, err
	}
	return MessageRecord{
		ID:        id,
		SessionID: domain.SessionID(str(s, "session_id")),
		SenderID:  domain.ClientID(str(s, "sender_id")),
		Text:      str(s, "text"),
		Lang:      str(s, "lang"),
		At:        at,
	}, nil
}

// str reads a string field, "" when absent. Nil structs are safe to read.
func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
