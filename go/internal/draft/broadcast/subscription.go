package broadcast

import (
	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
)

// Subscription is one subscriber's ordered view of a draft.
type Subscription struct {
	ID      uuid.UUID
	DraftID uuid.UUID

	hub    *Hub
	ch     chan events.Event
	done   chan struct{}
	cursor uint64 // highest Seq queued, guarded by hub.mu
	err    error  // set before ch is closed
}

// Events is the stream: a snapshot first, then live events in commit order.
// It is closed when the subscription ends.
func (s *Subscription) Events() <-chan events.Event {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended: drafterr.ErrSlowConsumer after an
// overflow, nil after Close or when the draft shut down. Only valid after Done.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s, nil)
}
