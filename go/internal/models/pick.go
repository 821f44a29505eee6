package models

import (
	"time"

	"github.com/google/uuid"
)

// Pick represents a single committed pick in a draft.
type Pick struct {
	ID          uuid.UUID `json:"id"`
	DraftID     uuid.UUID `json:"draft_id"`
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	OverallPick int       `json:"overall_pick"` // 1-based, dense within a draft
	TeamID      uuid.UUID `json:"team_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	PickedAt    time.Time `json:"picked_at"`
	IsAutopick  bool      `json:"is_autopick"`
	Amount      *int      `json:"amount,omitempty"` // winning bid in auction drafts
}

// Slot is one position on the draft board before it is filled.
type Slot struct {
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	OverallPick int       `json:"overall_pick"`
	TeamID      uuid.UUID `json:"team_id"`
}
