package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"pair-chat/domain/chat"
	pcerrors "pair-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestOutbox_Drops_Oldest_When_Full(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(2)

	// Given three messages sent to a two slot outbox
	req.NoError(outbox.Send(chat.Chat{Text: "1"}))
	req.NoError(outbox.Send(chat.Chat{Text: "2"}))
	req.NoError(outbox.Send(chat.Chat{Text: "3"}))

	// Then the oldest was dropped
	req.Equal(2, outbox.Len())
	req.Equal(uint64(1), outbox.Dropped())

	// When the outbox is closed and drained
	outbox.Close()
	var got []chat.Outbound
	err := outbox.Run(context.Background(), func(msg chat.Outbound) error {
		got = append(got, msg)
		return nil
	})

	// Then the remaining messages are flushed in order
	req.NoError(err)
	req.Equal([]chat.Outbound{chat.Chat{Text: "2"}, chat.Chat{Text: "3"}}, got)
}

func TestOutbox_Send_After_Close(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(4)

	outbox.Close()
	outbox.Close()

	req.ErrorIs(outbox.Send(chat.Ended{}), pcerrors.ErrOutboxClosed)
	select {
	case <-outbox.Done():
	default:
		req.Fail("done should be closed")
	}
}

func TestOutbox_Run_Delivers_Until_Write_Fails(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(4)
	broken := errors.New("broken pipe")

	result := make(chan error, 1)
	go func() {
		result <- outbox.Run(context.Background(), func(msg chat.Outbound) error {
			if _, ok := msg.(chat.Ended); ok {
				return broken
			}
			return nil
		})
	}()

	// When a write fails
	req.NoError(outbox.Send(chat.Matched{}))
	req.NoError(outbox.Send(chat.Ended{}))

	// Then Run returns the error and the outbox refuses new messages
	select {
	case err := <-result:
		req.ErrorIs(err, broken)
	case <-time.After(time.Second):
		req.Fail("Run did not return")
	}
	req.ErrorIs(outbox.Send(chat.Matched{}), pcerrors.ErrOutboxClosed)
}

func TestOutbox_Run_Stops_On_Context(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(4)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- outbox.Run(ctx, func(chat.Outbound) error { return nil })
	}()
	cancel()

	req.ErrorIs(<-result, context.Canceled)
	req.ErrorIs(outbox.Send(chat.Matched{}), pcerrors.ErrOutboxClosed)
}
