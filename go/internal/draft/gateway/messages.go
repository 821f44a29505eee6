package gateway

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
)

// MessageType names a client submission.
type MessageType string

const (
	MessageSubmitPick MessageType = "submit_pick"
	MessageSubmitBid  MessageType = "submit_bid"
	MessageNominate   MessageType = "nominate"
)

// ClientMessage is a submission sent over the socket.
type ClientMessage struct {
	Type      MessageType `json:"type"`
	TeamID    uuid.UUID   `json:"teamId"`
	PlayerID  uuid.UUID   `json:"playerId"`
	Amount    int         `json:"amount,omitempty"`
	RequestID string      `json:"requestId,omitempty"` // echoed on errors
}

// ErrorMessage answers a rejected submission. Only the sender receives it.
type ErrorMessage struct {
	Type      events.Type `json:"type"`
	Kind      string      `json:"kind"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
}

func newErrorMessage(err error, requestID string) ErrorMessage {
	msg := err.Error()
	var de *drafterr.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	return ErrorMessage{
		Type:      events.TypeError,
		Kind:      string(drafterr.KindOf(err)),
		Message:   msg,
		RequestID: requestID,
	}
}

// decodeClientMessage parses and checks a submission. A connection opened
// with a team_id may only act for that team and may leave teamId out.
func decodeClientMessage(data []byte, boundTeam uuid.UUID) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, drafterr.Wrap(drafterr.KindInvalidRequest, err, "malformed message")
	}

	switch msg.Type {
	case MessageSubmitPick, MessageSubmitBid, MessageNominate:
	default:
		return msg, drafterr.New(drafterr.KindInvalidRequest, "unknown message type %q", msg.Type)
	}

	if msg.TeamID == uuid.Nil {
		msg.TeamID = boundTeam
	}
	switch {
	case msg.TeamID == uuid.Nil:
		return msg, drafterr.New(drafterr.KindInvalidRequest, "teamId is required")
	case boundTeam != uuid.Nil && msg.TeamID != boundTeam:
		return msg, drafterr.New(drafterr.KindInvalidRequest, "connection acts for team %s", boundTeam)
	case msg.PlayerID == uuid.Nil:
		return msg, drafterr.New(drafterr.KindInvalidRequest, "playerId is required")
	case msg.Amount < 0:
		return msg, drafterr.New(drafterr.KindInvalidRequest, "amount must not be negative")
	}
	return msg, nil
}
