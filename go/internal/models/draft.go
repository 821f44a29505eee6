package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftFormat defines how turns are sequenced in a draft.
type DraftFormat string

const (
	DraftFormatSnake   DraftFormat = "snake"
	DraftFormatLinear  DraftFormat = "linear"
	DraftFormatAuction DraftFormat = "auction"
)

// Valid reports whether f is a known format.
func (f DraftFormat) Valid() bool {
	switch f {
	case DraftFormatSnake, DraftFormatLinear, DraftFormatAuction:
		return true
	}
	return false
}

// DraftStatus defines the lifecycle status of a draft.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "scheduled"
	DraftStatusInProgress DraftStatus = "in_progress"
	DraftStatusCompleted  DraftStatus = "completed"
)

// AuctionPhase is the sub-phase of an in-progress auction draft.
type AuctionPhase string

const (
	AuctionPhaseNominating AuctionPhase = "nominating"
	AuctionPhaseBidding    AuctionPhase = "bidding"
	AuctionPhaseAwarding   AuctionPhase = "awarding"
)

// DraftSettings holds the JSONB configuration for a draft.
type DraftSettings struct {
	Rounds             int         `json:"rounds"`
	SecondsPerPick     int         `json:"seconds_per_pick"`
	AutopickEnabled    bool        `json:"autopick_enabled"`
	AutopickGraceSec   int         `json:"autopick_grace_sec,omitempty"`
	TeamOrder          []uuid.UUID `json:"team_order"`
	ThirdRoundReversal bool        `json:"third_round_reversal,omitempty"`
	RosterSlots        RosterSlots `json:"roster_slots,omitempty"`

	// auction
	AuctionBudget     *int `json:"auction_budget,omitempty"`
	MinBid            int  `json:"min_bid,omitempty"`
	MinBidIncrement   int  `json:"min_bid_increment,omitempty"`
	NominationSeconds int  `json:"nomination_seconds,omitempty"`
	BidSeconds        int  `json:"bid_seconds,omitempty"`
}

// TotalPicks is the number of picks needed to complete the draft.
func (s DraftSettings) TotalPicks() int {
	return s.Rounds * len(s.TeamOrder)
}

// PickDuration is the pick clock including the autopick grace period.
func (s DraftSettings) PickDuration() time.Duration {
	return time.Duration(s.SecondsPerPick+s.AutopickGraceSec) * time.Second
}

// NominationDuration falls back to the pick clock when no nomination clock is configured.
func (s DraftSettings) NominationDuration() time.Duration {
	if s.NominationSeconds <= 0 {
		return s.PickDuration()
	}
	return time.Duration(s.NominationSeconds+s.AutopickGraceSec) * time.Second
}

// BidDuration is the countdown restarted by every accepted bid.
func (s DraftSettings) BidDuration() time.Duration {
	if s.BidSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.BidSeconds) * time.Second
}

// Draft represents a draft instance.
type Draft struct {
	ID          uuid.UUID     `json:"id"`
	LeagueID    uuid.UUID     `json:"league_id"`
	Format      DraftFormat   `json:"format"`
	Status      DraftStatus   `json:"status"`
	Paused      bool          `json:"paused"`
	Settings    DraftSettings `json:"settings"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
