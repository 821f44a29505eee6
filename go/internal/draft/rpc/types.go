package rpc

import (
	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// CreateDraftRequest uses the engine's request shape directly.
type CreateDraftRequest = engine.CreateDraftRequest

type CreateDraftResponse struct {
	Draft models.Draft `json:"draft"`
}

type GetDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type GetDraftResponse struct {
	View models.DraftView `json:"view"`
}

type StartDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type PauseDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	Reason  string    `json:"reason,omitempty"`
}

type ResumeDraftRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
}

// DraftStateResponse answers lifecycle calls with the view after the change.
type DraftStateResponse struct {
	View models.DraftView `json:"view"`
}

type SubmitPickRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

type SubmitPickResponse struct {
	Pick models.Pick `json:"pick"`
}

type SubmitBidRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Amount   int       `json:"amount"`
}

type NominateRequest struct {
	DraftID    uuid.UUID `json:"draft_id"`
	TeamID     uuid.UUID `json:"team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	OpeningBid int       `json:"opening_bid"`
}

// AuctionResponse answers bids and nominations with the auction state after the change.
type AuctionResponse struct {
	Auction *models.AuctionView `json:"auction,omitempty"`
	Seq     uint64              `json:"seq"`
}
