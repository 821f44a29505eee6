package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// OutboxEvent is one draft_outbox row. Payload is the full draft event
// envelope as written by the draft service.
type OutboxEvent struct {
	ID        uuid.UUID             `json:"id"`
	DraftID   uuid.UUID             `json:"draft_id"`
	EventType string                `json:"event_type"`
	Seq       int64                 `json:"seq"`
	Payload   json.RawMessage       `json:"payload"`
	Metadata  pqtype.NullRawMessage `json:"metadata"`
	CreatedAt time.Time             `json:"created_at"`
	SentAt    *time.Time            `json:"sent_at,omitempty"`
}

// Headers decodes the metadata column. A NULL column yields no headers.
func (e OutboxEvent) Headers() (map[string]string, error) {
	if !e.Metadata.Valid || len(e.Metadata.RawMessage) == 0 {
		return nil, nil
	}
	var h map[string]string
	if err := json.Unmarshal(e.Metadata.RawMessage, &h); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for outbox event %s: %w", e.ID, err)
	}
	return h, nil
}

// EventPublisher delivers an outbox event to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
