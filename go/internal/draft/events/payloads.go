package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// SnapshotPayload is the first message on every subscription.
type SnapshotPayload struct {
	View models.DraftView `json:"view"`
}

// PickCommittedPayload is the payload for a pick_committed event
type PickCommittedPayload struct {
	Pick   models.Pick           `json:"pick"`
	Budget *models.AuctionBudget `json:"budget,omitempty"`
}

// ClockArmedPayload is the payload for a clock_armed event
type ClockArmedPayload struct {
	Purpose     string    `json:"purpose"`
	TeamID      uuid.UUID `json:"team_id"`
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	OverallPick int       `json:"overall_pick"`
	ArmedAt     time.Time `json:"armed_at"`
	Deadline    time.Time `json:"deadline"`
	DisplayOnly bool      `json:"display_only,omitempty"`
}

// DraftStartedPayload is the payload for a draft_started event
type DraftStartedPayload struct {
	Format      models.DraftFormat `json:"format"`
	StartedAt   time.Time          `json:"started_at"`
	TotalRounds int                `json:"total_rounds"`
	TotalPicks  int                `json:"total_picks"`
}

// DraftCompletedPayload is the payload for a draft_completed event
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a draft_paused event
type DraftPausedPayload struct {
	PausedAt    time.Time `json:"paused_at"`
	Reason      string    `json:"reason"`
	RemainingMS int64     `json:"remaining_ms"`
}

// DraftResumedPayload is the payload for a draft_resumed event
type DraftResumedPayload struct {
	ResumedAt time.Time `json:"resumed_at"`
}

// NominationOpenedPayload is the payload for a nomination_opened event
type NominationOpenedPayload struct {
	Nomination models.Nomination `json:"nomination"`
	Deadline   time.Time         `json:"deadline"`
}

// BidPlacedPayload is the payload for a bid_placed event
type BidPlacedPayload struct {
	Bid      models.Bid `json:"bid"`
	Deadline time.Time  `json:"deadline"`
}

// ErrorPayload carries a rejected submission back to its sender, or a
// fatal_error to every subscriber.
type ErrorPayload struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	OverallPick int    `json:"overall_pick,omitempty"`
}
