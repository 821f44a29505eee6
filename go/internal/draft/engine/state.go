package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/turn"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/validator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// formatState is the format-specific part of a draft: *SnakeState for snake
// and linear drafts, *AuctionState for auctions.
type formatState interface {
	clone() formatState
}

// SnakeState is the pick cursor of a snake or linear draft.
type SnakeState struct {
	Round       int
	PickInRound int
	OverallPick int // next pick to be made
	TeamOnClock uuid.UUID
}

func (s *SnakeState) clone() formatState {
	c := *s
	return &c
}

// AuctionState tracks nominations and budgets.
type AuctionState struct {
	Phase models.AuctionPhase
	// NominationTurn counts nominations, 1-based; it drives the nominator order.
	NominationTurn int
	Nominator      uuid.UUID
	Nomination     *models.Nomination
	Budgets        map[uuid.UUID]models.AuctionBudget
}

func (s *AuctionState) clone() formatState {
	c := *s
	c.Budgets = make(map[uuid.UUID]models.AuctionBudget, len(s.Budgets))
	for k, v := range s.Budgets {
		c.Budgets[k] = v
	}
	if s.Nomination != nil {
		n := *s.Nomination
		if n.HighBid != nil {
			hb := *n.HighBid
			n.HighBid = &hb
		}
		c.Nomination = &n
	}
	return &c
}

// clockState is the visible draft clock.
type clockState struct {
	purpose     orchestrator.Purpose
	slot        int
	armedAt     time.Time
	deadline    time.Time
	remaining   time.Duration // while paused
	paused      bool
	displayOnly bool
	token       uint64
}

// state is everything the actor owns.
type state struct {
	draft   models.Draft
	picks   []models.Pick
	drafted map[uuid.UUID]bool
	rosters map[uuid.UUID][]models.Player
	pool    map[uuid.UUID]models.Player
	seq     uint64
	clock   *clockState
	format  formatState

	// clockSeq numbers every arm so a timer from an earlier clock is recognised.
	clockSeq uint64
}

func newState(draft models.Draft, pool []models.Player) *state {
	s := &state{
		draft:   draft,
		drafted: make(map[uuid.UUID]bool),
		rosters: make(map[uuid.UUID][]models.Player),
		pool:    make(map[uuid.UUID]models.Player, len(pool)),
	}
	for _, p := range pool {
		s.pool[p.ID] = p
	}
	if draft.Format == models.DraftFormatAuction {
		s.format = &AuctionState{
			Phase:   models.AuctionPhaseNominating,
			Budgets: make(map[uuid.UUID]models.AuctionBudget),
		}
	} else {
		s.format = &SnakeState{}
	}
	return s
}

// restore replays committed picks and budgets loaded from the store.
func (s *state) restore(picks []models.Pick, budgets []models.AuctionBudget) {
	for _, p := range picks {
		s.apply(p)
	}
	if a, ok := s.format.(*AuctionState); ok {
		for _, b := range budgets {
			a.Budgets[b.TeamID] = b
		}
		// open nominations are not durable; resume with the team after the last award
		a.NominationTurn = len(picks)
	}
	s.advance()
}

// apply appends a committed pick.
func (s *state) apply(p models.Pick) {
	s.picks = append(s.picks, p)
	s.drafted[p.PlayerID] = true
	if player, ok := s.pool[p.PlayerID]; ok {
		s.rosters[p.TeamID] = append(s.rosters[p.TeamID], player)
	} else {
		s.rosters[p.TeamID] = append(s.rosters[p.TeamID], models.Player{ID: p.PlayerID})
	}
}

// advance moves the cursor past the committed picks.
func (s *state) advance() {
	order := s.draft.Settings.TeamOrder
	opts := turn.Options{ThirdRoundReversal: s.draft.Settings.ThirdRoundReversal}
	next := len(s.picks) + 1

	switch f := s.format.(type) {
	case *SnakeState:
		f.OverallPick = next
		if next > s.draft.Settings.TotalPicks() {
			f.TeamOnClock = uuid.Nil
			return
		}
		f.Round, f.PickInRound = turn.Locate(next, len(order))
		f.TeamOnClock = turn.TeamOnClockWith(s.draft.Format, order, f.Round, f.PickInRound, opts)
	case *AuctionState:
		f.Nominator = uuid.Nil
		if next > s.draft.Settings.TotalPicks() {
			return
		}
		// skip teams that cannot roster another player
		for i := 0; i < len(order); i++ {
			f.NominationTurn++
			round, pick := turn.Locate(f.NominationTurn, len(order))
			team := turn.TeamOnClockWith(s.draft.Format, order, round, pick, opts)
			if b, ok := f.Budgets[team]; !ok || b.RemainingSlots > 0 {
				f.Nominator = team
				return
			}
		}
	}
}

// complete reports whether every pick has been made.
func (s *state) complete() bool {
	return len(s.picks) >= s.draft.Settings.TotalPicks()
}

// nextPick is the overall number of the pick being made.
func (s *state) nextPick() int {
	return len(s.picks) + 1
}

// onClock is the team expected to act: the picker in snake and linear
// drafts, the nominator in auctions.
func (s *state) onClock() uuid.UUID {
	switch f := s.format.(type) {
	case *SnakeState:
		return f.TeamOnClock
	case *AuctionState:
		return f.Nominator
	}
	return uuid.Nil
}

// positions returns a team's drafted positions.
func (s *state) positions(teamID uuid.UUID) []models.Position {
	roster := s.rosters[teamID]
	out := make([]models.Position, len(roster))
	for i, p := range roster {
		out[i] = p.Position
	}
	return out
}

// available returns undrafted players, best ADP first.
func (s *state) available() []models.Player {
	out := make([]models.Player, 0, len(s.pool)-len(s.drafted))
	for id, p := range s.pool {
		if !s.drafted[id] {
			out = append(out, p)
		}
	}
	sortByADP(out)
	return out
}

// validatorState copies what the rules need.
func (s *state) validatorState() validator.State {
	rosters := make(map[uuid.UUID][]models.Position, len(s.rosters))
	for team := range s.rosters {
		rosters[team] = s.positions(team)
	}
	vs := validator.State{
		Status:      s.draft.Status,
		Paused:      s.draft.Paused,
		Format:      s.draft.Format,
		Settings:    s.draft.Settings,
		TeamOnClock: s.onClock(),
		Players:     s.pool,
		Drafted:     s.drafted,
		Rosters:     rosters,
	}
	if a, ok := s.format.(*AuctionState); ok {
		vs.Phase = a.Phase
		vs.Budgets = a.Budgets
		vs.Nomination = a.Nomination
	}
	return vs
}
