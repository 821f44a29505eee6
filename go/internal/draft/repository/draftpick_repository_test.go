package repository

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
)

func TestOutboxRows(t *testing.T) {
	draftID := uuid.New()
	committed := testEvent(t, draftID, events.TypePickCommitted, 7)
	rows, err := outboxRows([]events.Event{
		testEvent(t, draftID, events.TypeClockArmed, 6),
		committed,
		testEvent(t, draftID, events.TypeBidPlaced, 8),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, committed.ID, row.ID, "outbox id doubles as the bus dedupe key")
	assert.Equal(t, "pick_committed", row.EventType)
	assert.EqualValues(t, 7, row.Seq)

	var envelope events.Event
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, committed.ID, envelope.ID)
	assert.Equal(t, events.TypePickCommitted, envelope.Type)

	var headers map[string]string
	require.NoError(t, json.Unmarshal(row.Metadata, &headers))
	assert.Equal(t, map[string]string{"Event-Seq": "7", "Producer": "draftd"}, headers)
}
