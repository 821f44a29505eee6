package models

import (
	"time"

	"github.com/google/uuid"
)

// ClockView is the visible state of the draft clock.
type ClockView struct {
	Purpose     string        `json:"purpose"`
	Slot        int           `json:"slot"`
	ArmedAt     time.Time     `json:"armed_at"`
	Deadline    time.Time     `json:"deadline"`
	Remaining   time.Duration `json:"remaining_ns,omitempty"` // set while paused
	Paused      bool          `json:"paused"`
	DisplayOnly bool          `json:"display_only,omitempty"` // expiry does nothing
}

// AuctionView is the auction-only part of a draft view.
type AuctionView struct {
	Phase      AuctionPhase `json:"phase"`
	Nomination *Nomination  `json:"nomination,omitempty"`
}

// DraftView is the read-only projection served to clients joining mid-draft.
type DraftView struct {
	Draft       Draft           `json:"draft"`
	Status      DraftStatus     `json:"status"`
	Paused      bool            `json:"paused"`
	Round       int             `json:"round"`
	PickInRound int             `json:"pick_in_round"`
	OverallPick int             `json:"overall_pick"` // next pick to be made
	TeamOnClock *uuid.UUID      `json:"team_on_clock,omitempty"`
	Clock       *ClockView      `json:"clock,omitempty"`
	Picks       []Pick          `json:"picks"`
	Budgets     []AuctionBudget `json:"budgets,omitempty"`
	Auction     *AuctionView    `json:"auction,omitempty"`
	Seq         uint64          `json:"seq"`
}

// Committed is the number of picks made so far.
func (v DraftView) Committed() int {
	return len(v.Picks)
}
