package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionBudget tracks a team's spend in an auction draft.
type AuctionBudget struct {
	DraftID         uuid.UUID `json:"draft_id"`
	TeamID          uuid.UUID `json:"team_id"`
	StartingBudget  int       `json:"starting_budget"`
	RemainingBudget int       `json:"remaining_budget"`
	RemainingSlots  int       `json:"remaining_slots"`
}

// MaxBid is the most a team can bid while still affording minBid for every
// other slot it must fill.
func (b AuctionBudget) MaxBid(minBid int) int {
	if b.RemainingSlots <= 0 {
		return 0
	}
	return b.RemainingBudget - minBid*(b.RemainingSlots-1)
}

// Bid is a single offer on the nominated player.
type Bid struct {
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Amount   int       `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`
}

// Nomination is the player currently up for auction.
type Nomination struct {
	NominatorID uuid.UUID `json:"nominator_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	OpenedAt    time.Time `json:"opened_at"`
	HighBid     *Bid      `json:"high_bid,omitempty"`
}
