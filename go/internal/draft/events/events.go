// Package events defines the envelope and payloads emitted by a running draft.
// The same envelope is broadcast to websocket subscribers, written to the
// outbox and relayed to the message bus.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type represents the type of draft event
type Type string

const (
	TypeSnapshot         Type = "snapshot"
	TypePickCommitted    Type = "pick_committed"
	TypeClockArmed       Type = "clock_armed"
	TypeDraftStarted     Type = "draft_started"
	TypeDraftPaused      Type = "draft_paused"
	TypeDraftResumed     Type = "draft_resumed"
	TypeDraftCompleted   Type = "draft_completed"
	TypeNominationOpened Type = "nomination_opened"
	TypeBidPlaced        Type = "bid_placed"
	TypeFatalError       Type = "fatal_error"
	TypeError            Type = "error"
)

// Durable reports whether events of this type are written to the outbox.
// Snapshots, clocks and auction bidding are only meaningful to live subscribers.
func (t Type) Durable() bool {
	switch t {
	case TypePickCommitted, TypeDraftStarted, TypeDraftPaused, TypeDraftResumed, TypeDraftCompleted:
		return true
	}
	return false
}

// Event is the envelope for everything a draft emits.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	Type      Type            `json:"type"`
	Seq       uint64          `json:"seq"` // per-draft, strictly increasing
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New marshals payload into a fresh envelope.
func New(draftID uuid.UUID, typ Type, seq uint64, at time.Time, payload any) (Event, error) {
	ev := Event{
		ID:        uuid.New(),
		DraftID:   draftID,
		Type:      typ,
		Seq:       seq,
		Timestamp: at,
	}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	ev.Data = data
	return ev, nil
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.Type)
	}
	return json.Unmarshal(e.Data, v)
}

// Parse decodes the event data into the payload struct for its type.
// Unknown types return nil, nil.
func Parse(e Event) (any, error) {
	var payload any
	switch e.Type {
	case TypeSnapshot:
		payload = &SnapshotPayload{}
	case TypePickCommitted:
		payload = &PickCommittedPayload{}
	case TypeClockArmed:
		payload = &ClockArmedPayload{}
	case TypeDraftStarted:
		payload = &DraftStartedPayload{}
	case TypeDraftPaused:
		payload = &DraftPausedPayload{}
	case TypeDraftResumed:
		payload = &DraftResumedPayload{}
	case TypeDraftCompleted:
		payload = &DraftCompletedPayload{}
	case TypeNominationOpened:
		payload = &NominationOpenedPayload{}
	case TypeBidPlaced:
		payload = &BidPlacedPayload{}
	case TypeFatalError, TypeError:
		payload = &ErrorPayload{}
	default:
		return nil, nil
	}
	if err := e.Decode(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
