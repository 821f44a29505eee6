package models

import "sort"

// RosterSlot is a group of identical lineup slots. An empty Eligible list
// accepts any position (bench).
type RosterSlot struct {
	Name     string     `json:"name" yaml:"name" validate:"required"`
	Count    int        `json:"count" yaml:"count" validate:"min=1"`
	Eligible []Position `json:"eligible,omitempty" yaml:"eligible,omitempty" validate:"dive,oneof=QB RB WR TE K DEF"`
}

// Accepts reports whether a player at pos can occupy this slot.
func (s RosterSlot) Accepts(pos Position) bool {
	if len(s.Eligible) == 0 {
		return true
	}
	for _, p := range s.Eligible {
		if p == pos {
			return true
		}
	}
	return false
}

func (s RosterSlot) width() int {
	if len(s.Eligible) == 0 {
		return len(AllPositions) + 1
	}
	return len(s.Eligible)
}

// RosterSlots describes a full roster.
type RosterSlots []RosterSlot

// DefaultRosterSlots is a standard 16-man football roster.
func DefaultRosterSlots() RosterSlots {
	return RosterSlots{
		{Name: "QB", Count: 1, Eligible: []Position{PositionQB}},
		{Name: "RB", Count: 2, Eligible: []Position{PositionRB}},
		{Name: "WR", Count: 2, Eligible: []Position{PositionWR}},
		{Name: "TE", Count: 1, Eligible: []Position{PositionTE}},
		{Name: "FLEX", Count: 1, Eligible: []Position{PositionRB, PositionWR, PositionTE}},
		{Name: "K", Count: 1, Eligible: []Position{PositionK}},
		{Name: "DEF", Count: 1, Eligible: []Position{PositionDEF}},
		{Name: "BENCH", Count: 7},
	}
}

// Size is the total number of players a roster holds.
func (rs RosterSlots) Size() int {
	n := 0
	for _, s := range rs {
		n += s.Count
	}
	return n
}

// Remaining seats every position and returns the open capacity left in each
// slot group, indexed like rs. ok is false when some player cannot be seated.
// Slots are filled narrowest first, which is exact for nested eligibility
// (dedicated ⊂ flex ⊂ bench).
func (rs RosterSlots) Remaining(positions []Position) (open []int, ok bool) {
	open = make([]int, len(rs))
	order := make([]int, len(rs))
	for i, s := range rs {
		open[i] = s.Count
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rs[order[a]].width() < rs[order[b]].width()
	})

	seated := make([]bool, len(positions))
	for _, idx := range order {
		for p, pos := range positions {
			if open[idx] == 0 {
				break
			}
			if seated[p] || !rs[idx].Accepts(pos) {
				continue
			}
			seated[p] = true
			open[idx]--
		}
	}
	for _, s := range seated {
		if !s {
			return open, false
		}
	}
	return open, true
}

// Fits reports whether a player at pos can join a roster already holding positions.
func (rs RosterSlots) Fits(positions []Position, pos Position) bool {
	if len(rs) == 0 {
		return true
	}
	with := make([]Position, len(positions), len(positions)+1)
	copy(with, positions)
	_, ok := rs.Remaining(append(with, pos))
	return ok
}

// Needs returns positions that still have an open dedicated slot.
func (rs RosterSlots) Needs(positions []Position) map[Position]bool {
	needs := make(map[Position]bool)
	open, _ := rs.Remaining(positions)
	for i, s := range rs {
		if len(s.Eligible) == 1 && open[i] > 0 {
			needs[s.Eligible[0]] = true
		}
	}
	return needs
}
