package models

import (
	"github.com/google/uuid"
)

// Position is a player's fantasy position.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDEF Position = "DEF"
)

// AllPositions is the set of positions a player can hold.
var AllPositions = map[Position]struct{}{
	PositionQB:  {},
	PositionRB:  {},
	PositionWR:  {},
	PositionTE:  {},
	PositionK:   {},
	PositionDEF: {},
}

// Player is a draftable player. ADP comes from the external rankings feed;
// lower is better and zero means unranked.
type Player struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Position Position  `json:"position"`
	Team     string    `json:"team,omitempty"`
	ADP      float64   `json:"adp,omitempty"`
	ByeWeek  int       `json:"bye_week,omitempty"`
}
