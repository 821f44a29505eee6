// Package broadcast fans draft events out to subscribers.
//
// Each draft has one producer (its actor), so events reach every subscriber in
// commit order. A subscriber that cannot keep up is disconnected instead of
// slowing the others down.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
)

// Config holds hub settings.
type Config struct {
	// BufferSize is the per-subscriber queue length.
	BufferSize int
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Hub routes events to per-draft subscribers.
type Hub struct {
	config Config

	mu     sync.Mutex
	topics map[uuid.UUID]map[*Subscription]struct{}

	published atomic.Uint64
	overflows atomic.Uint64
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Drafts      int            `json:"drafts"`
	Subscribers int            `json:"subscribers"`
	PerDraft    map[string]int `json:"per_draft"`
	Published   uint64         `json:"published"`
	Overflows   uint64         `json:"overflows"`
}

// NewHub creates a hub.
func NewHub(config Config) *Hub {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	return &Hub{
		config: config,
		topics: make(map[uuid.UUID]map[*Subscription]struct{}),
	}
}

// Subscribe registers a subscriber whose stream starts with snapshot. Live
// events at or below the snapshot's Seq are skipped, so the caller must take
// the snapshot and subscribe without letting the draft commit in between.
func (h *Hub) Subscribe(draftID uuid.UUID, snapshot events.Event) *Subscription {
	sub := &Subscription{
		ID:      uuid.New(),
		DraftID: draftID,
		hub:     h,
		ch:      make(chan events.Event, h.config.BufferSize),
		done:    make(chan struct{}),
		cursor:  snapshot.Seq,
	}
	sub.ch <- snapshot

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[draftID] == nil {
		h.topics[draftID] = make(map[*Subscription]struct{})
	}
	h.topics[draftID][sub] = struct{}{}

	log.Debug().
		Str("subscription_id", sub.ID.String()).
		Str("draft_id", draftID.String()).
		Uint64("cursor", sub.cursor).
		Int("subscribers", len(h.topics[draftID])).
		Msg("subscriber registered")
	return sub
}

// Publish delivers ev to every subscriber of draftID without blocking.
func (h *Hub) Publish(draftID uuid.UUID, ev events.Event) {
	h.published.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.topics[draftID]
	delivered := 0
	for sub := range subs {
		if ev.Seq <= sub.cursor {
			continue
		}
		select {
		case sub.ch <- ev:
			sub.cursor = ev.Seq
			delivered++
		default:
			h.overflows.Add(1)
			log.Warn().
				Str("subscription_id", sub.ID.String()).
				Str("draft_id", draftID.String()).
				Uint64("seq", ev.Seq).
				Msg("subscriber buffer full, disconnecting")
			h.removeLocked(sub, drafterr.ErrSlowConsumer)
		}
	}

	log.Debug().
		Str("event_type", string(ev.Type)).
		Str("draft_id", draftID.String()).
		Uint64("seq", ev.Seq).
		Int("subscribers", delivered).
		Msg("event broadcasted")
}

// Close ends every subscription for a draft.
func (h *Hub) Close(draftID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[draftID] {
		h.removeLocked(sub, nil)
	}
}

// Subscribers is the number of live subscriptions for a draft.
func (h *Hub) Subscribers(draftID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[draftID])
}

// Stats returns subscriber counts and delivery counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Stats{
		Drafts:    len(h.topics),
		PerDraft:  make(map[string]int, len(h.topics)),
		Published: h.published.Load(),
		Overflows: h.overflows.Load(),
	}
	for draftID, subs := range h.topics {
		st.Subscribers += len(subs)
		st.PerDraft[draftID.String()] = len(subs)
	}
	return st
}

func (h *Hub) remove(sub *Subscription, reason error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, reason)
}

// removeLocked unregisters sub and closes its stream. The caller must hold mu.
func (h *Hub) removeLocked(sub *Subscription, reason error) {
	subs, ok := h.topics[sub.DraftID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.DraftID)
	}
	sub.err = reason
	close(sub.ch)
	close(sub.done)
}
