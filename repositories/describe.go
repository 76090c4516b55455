package repositories

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Row is a human readable view of one stored key, used by the inspect tools.
type Row struct {
	Key    string
	Type   string
	At     string
	Owner  string
	Detail string
}

// Describe decodes a raw badger entry. Message text is reduced to its length and language.
func Describe(key string, value []byte) (Row, error) {
	row := Row{Key: key}
	switch {
	case strings.HasPrefix(key, sessionIndexPrefix):
		row.Type = "INDEX"
		row.Owner = string(value)
		return row, nil
	case strings.HasPrefix(key, connectionPrefix):
		row.Type = "CONN"
	case strings.HasPrefix(key, sessionPrefix):
		row.Type = "SESSION"
	case strings.HasPrefix(key, messagePrefix):
		row.Type = "MSG"
	default:
		row.Type = "UNKNOWN"
		row.Detail = fmt.Sprintf("%d bytes", len(value))
		return row, nil
	}

	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return row, fmt.Errorf("decode %s: %w", key, err)
	}

	switch row.Type {
	case "CONN":
		record, err := toConnectionRecord(&s)
		if err != nil {
			return row, err
		}
		row.At = formatTime(record.At)
		row.Owner = string(record.ClientID)
		row.Detail = strings.TrimSpace(fmt.Sprintf("%s %s %s", record.Kind, record.Enrichment.Country, record.SessionID))
	case "SESSION":
		record, err := toSessionRecord(&s)
		if err != nil {
			return row, err
		}
		row.At = formatTime(record.StartedAt)
		row.Owner = fmt.Sprintf("%s,%s", record.Participants[0], record.Participants[1])
		row.Detail = "active"
		if record.EndedAt != nil {
			row.Detail = "ended after " + record.EndedAt.Sub(record.StartedAt).Round(time.Millisecond).String()
		}
	case "MSG":
		record, err := toMessageRecord(&s)
		if err != nil {
			return row, err
		}
		row.At = formatTime(record.At)
		row.Owner = string(record.SenderID)
		row.Detail = fmt.Sprintf("%d chars lang=%s", len([]rune(record.Text)), record.Lang)
	}
	return row, nil
}
