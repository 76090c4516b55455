package sink

import (
	"context"
	"fmt"
	"log/slog"

	"pair-chat/domain/event"
	"pair-chat/repositories"

	"github.com/abadojack/whatlanggo"
)

// DiskSink persists every recorded event through the record repository.
// Relayed messages are tagged with their detected language when detection is reliable.
type DiskSink struct {
	repository repositories.IRecordRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IRecordRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch evt := e.(type) {
	case event.ConnectionRecorded:
		return d.repository.StoreConnection(repositories.ConnectionRecord{
			Kind:       string(evt.Kind),
			ClientID:   evt.ClientID,
			SessionID:  evt.SessionID,
			Enrichment: evt.Enrichment,
			At:         evt.At,
		})
	case event.SessionStarted:
		return d.repository.StoreSessionStart(evt.Session)
	case event.SessionEnded:
		return d.repository.StoreSessionEnd(evt.SessionID, evt.At)
	case event.MessageRelayed:
		return d.repository.StoreMessage(repositories.MessageRecord{
			SessionID: evt.SessionID,
			SenderID:  evt.SenderID,
			Text:      evt.Text,
			Lang:      DetectLang(evt.Text),
			At:        evt.At,
		})
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}

// DetectLang returns the ISO 639-1 code of text, or "" when unsure.
func DetectLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
