package runtime

import (
	"context"
	"sync"

	"pair-chat/domain/chat"
	"pair-chat/errors"

	"github.com/eapache/queue"
)

// Outbox is the bounded outbound queue of one connection.
//
// Send never blocks: when the queue is full the oldest pending message is dropped,
// so a slow reader only ever loses its own backlog and never stalls the sender.
// A single writer drains the queue through Run.
type Outbox struct {
	mu       sync.Mutex
	pending  *queue.Queue
	capacity int
	dropped  uint64
	closed   bool
	notify   chan struct{}
	done     chan struct{}
}

func NewOutbox(capacity int) *Outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Outbox{
		pending:  queue.New(),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (o *Outbox) Send(msg chat.Outbound) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.ErrOutboxClosed
	}
	if o.pending.Length() >= o.capacity {
		o.pending.Remove()
		o.dropped++
	}
	o.pending.Add(msg)
	o.mu.Unlock()

	o.wake()
	return nil
}

// Close stops accepting messages. Messages already queued are still flushed by Run.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.done)
	o.mu.Unlock()

	o.wake()
}

// Run hands every queued message to write, in order, until the outbox is closed
// and drained. A write error closes the outbox and is returned.
func (o *Outbox) Run(ctx context.Context, write func(chat.Outbound) error) error {
	for {
		o.mu.Lock()
		if o.pending.Length() > 0 {
			msg := o.pending.Remove().(chat.Outbound)
			o.mu.Unlock()
			if err := write(msg); err != nil {
				o.Close()
				return err
			}
			continue
		}
		closed := o.closed
		o.mu.Unlock()

		if closed {
			return nil
		}

		select {
		case <-o.notify:
		case <-ctx.Done():
			o.Close()
			return ctx.Err()
		}
	}
}

// Done is closed once the outbox stops accepting messages.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending.Length()
}

func (o *Outbox) Dropped() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

func (o *Outbox) wake() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}
