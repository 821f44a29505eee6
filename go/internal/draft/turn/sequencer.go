// Package turn maps draft positions to the team on the clock.
package turn

import (
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Options tweak the snake order.
type Options struct {
	// ThirdRoundReversal keeps round 3 in the same direction as round 2 and
	// alternates from there.
	ThirdRoundReversal bool
}

// TeamOnClock returns the team picking (or, for auctions, nominating) at
// round / pickInRound. Both are 1-based. A pickInRound past the number of
// teams is taken as an overall pick and wraps. An empty teamOrder is a
// programming error and panics.
func TeamOnClock(format models.DraftFormat, teamOrder []uuid.UUID, round, pickInRound int) uuid.UUID {
	return TeamOnClockWith(format, teamOrder, round, pickInRound, Options{})
}

// TeamOnClockWith is TeamOnClock with snake options.
func TeamOnClockWith(format models.DraftFormat, teamOrder []uuid.UUID, round, pickInRound int, opts Options) uuid.UUID {
	n := len(teamOrder)
	if n == 0 {
		panic("turn: empty team order")
	}
	if round < 1 || pickInRound < 1 {
		panic("turn: position out of range")
	}
	k := (pickInRound-1)%n + 1
	if reversed(format, round, opts) {
		return teamOrder[n-k]
	}
	return teamOrder[k-1]
}

// reversed reports whether the round runs against teamOrder.
func reversed(format models.DraftFormat, round int, opts Options) bool {
	if format == models.DraftFormatLinear {
		return false
	}
	if opts.ThirdRoundReversal && round >= 3 {
		// round 3 repeats round 2's direction, then alternate
		return round%2 == 1
	}
	return round%2 == 0
}

// Locate converts a 1-based overall pick into round and pick-in-round.
func Locate(overallPick, numTeams int) (round, pickInRound int) {
	if numTeams <= 0 {
		panic("turn: empty team order")
	}
	round = (overallPick-1)/numTeams + 1
	pickInRound = (overallPick-1)%numTeams + 1
	return round, pickInRound
}

// Schedule lays out the full board for a draft.
func Schedule(format models.DraftFormat, teamOrder []uuid.UUID, rounds int, opts Options) []models.Slot {
	n := len(teamOrder)
	slots := make([]models.Slot, 0, rounds*n)
	overall := 1
	for round := 1; round <= rounds; round++ {
		for pick := 1; pick <= n; pick++ {
			slots = append(slots, models.Slot{
				Round:       round,
				PickInRound: pick,
				OverallPick: overall,
				TeamID:      TeamOnClockWith(format, teamOrder, round, pick, opts),
			})
			overall++
		}
	}
	return slots
}
