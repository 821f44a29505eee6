package engine

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/turn"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// refreshView publishes an immutable projection of the current state.
func (d *Draft) refreshView() {
	st := d.st
	view := &models.DraftView{
		Draft:       st.draft,
		Status:      st.draft.Status,
		Paused:      st.draft.Paused,
		OverallPick: st.nextPick(),
		Picks:       slices.Clone(st.picks),
		Seq:         st.seq,
	}
	view.Draft.Settings.TeamOrder = slices.Clone(st.draft.Settings.TeamOrder)
	if view.Picks == nil {
		view.Picks = []models.Pick{}
	}

	if !st.complete() {
		view.Round, view.PickInRound = turn.Locate(st.nextPick(), len(st.draft.Settings.TeamOrder))
		if team := st.onClock(); team != uuid.Nil && st.draft.Status == models.DraftStatusInProgress {
			view.TeamOnClock = &team
		}
	}

	if c := st.clock; c != nil {
		view.Clock = &models.ClockView{
			Purpose:     string(c.purpose),
			Slot:        c.slot,
			ArmedAt:     c.armedAt,
			Deadline:    c.deadline,
			Paused:      c.paused,
			DisplayOnly: c.displayOnly,
		}
		if c.paused {
			view.Clock.Remaining = c.remaining
		}
	}

	if a, ok := st.format.(*AuctionState); ok {
		view.Budgets = make([]models.AuctionBudget, 0, len(a.Budgets))
		for _, team := range st.draft.Settings.TeamOrder {
			if b, ok := a.Budgets[team]; ok {
				view.Budgets = append(view.Budgets, b)
			}
		}
		av := &models.AuctionView{Phase: a.Phase}
		if a.Nomination != nil {
			n := *a.Nomination
			if n.HighBid != nil {
				hb := *n.HighBid
				n.HighBid = &hb
			}
			av.Nomination = &n
		}
		view.Auction = av
	}

	d.view.Store(view)
}

// sortByADP orders players by ADP, unranked last, then by name.
func sortByADP(players []models.Player) {
	slices.SortFunc(players, func(a, b models.Player) int {
		ar, br := a.ADP > 0, b.ADP > 0
		switch {
		case ar && !br:
			return -1
		case !ar && br:
			return 1
		case ar && br && a.ADP != b.ADP:
			return cmp.Compare(a.ADP, b.ADP)
		}
		return cmp.Compare(a.FullName, b.FullName)
	})
}
