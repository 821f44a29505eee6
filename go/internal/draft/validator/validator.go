// Package validator holds the pick legality rules. It is pure: every check
// runs against a State copied out of the draft actor.
package validator

import (
	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Action is what a submission asks the draft to do.
type Action int

const (
	// ActionPick commits a player to the team on the clock (snake, linear).
	ActionPick Action = iota
	// ActionNominate opens bidding on a player (auction).
	ActionNominate
	// ActionBid raises the high bid on the open nomination (auction).
	ActionBid
	// ActionAward commits the nominated player to the high bidder (auction).
	ActionAward
)

func (a Action) String() string {
	switch a {
	case ActionPick:
		return "pick"
	case ActionNominate:
		return "nominate"
	case ActionBid:
		return "bid"
	case ActionAward:
		return "award"
	}
	return "unknown"
}

// Submission is a request to change draft state.
type Submission struct {
	Action   Action
	TeamID   uuid.UUID
	PlayerID uuid.UUID
	Amount   int
}

// State is the slice of draft state the rules look at.
type State struct {
	Status      models.DraftStatus
	Paused      bool
	Format      models.DraftFormat
	Settings    models.DraftSettings
	TeamOnClock uuid.UUID

	// Players is the draftable pool keyed by id; Drafted holds committed player ids.
	Players map[uuid.UUID]models.Player
	Drafted map[uuid.UUID]bool
	// Rosters holds the positions each team has drafted so far.
	Rosters map[uuid.UUID][]models.Position

	// auction only
	Phase      models.AuctionPhase
	Budgets    map[uuid.UUID]models.AuctionBudget
	Nomination *models.Nomination
}

// Validate runs the checks in order and returns the first failure, or nil.
//
//  1. draft is in progress
//  2. player exists and is undrafted
//  3. team is entitled to act (on the clock, high bidder, or open nomination)
//  4. team has a compatible roster slot
//  5. auction: amount is affordable after reserving minBid for other slots
//  6. auction: bid meets the minimum and beats the high bid
func Validate(s State, sub Submission) error {
	if err := checkStatus(s, sub); err != nil {
		return err
	}

	player, ok := s.Players[sub.PlayerID]
	if !ok {
		return drafterr.New(drafterr.KindUnknownPlayer, "player %s is not in the pool", sub.PlayerID)
	}
	if s.Drafted[sub.PlayerID] {
		return drafterr.New(drafterr.KindPlayerAlreadyDrafted, "player %s already drafted", sub.PlayerID)
	}

	if err := checkTurn(s, sub); err != nil {
		return err
	}

	if !hasRoomFor(s, sub.TeamID, player.Position) {
		return drafterr.New(drafterr.KindRosterFull, "team %s has no open slot for %s", sub.TeamID, player.Position)
	}

	if s.Format != models.DraftFormatAuction {
		return nil
	}

	budget, ok := s.Budgets[sub.TeamID]
	if !ok {
		return drafterr.New(drafterr.KindNotYourTurn, "team %s is not in this draft", sub.TeamID)
	}
	minBid := MinBid(s.Settings)
	if max := budget.MaxBid(minBid); sub.Amount > max {
		return drafterr.New(drafterr.KindInsufficientBudget, "bid %d exceeds max bid %d", sub.Amount, max)
	}

	if sub.Action == ActionAward {
		return nil
	}
	if sub.Amount < minBid {
		return drafterr.New(drafterr.KindBidTooLow, "bid %d is below the minimum %d", sub.Amount, minBid)
	}
	if sub.Action == ActionBid && s.Nomination != nil && s.Nomination.HighBid != nil {
		need := s.Nomination.HighBid.Amount + MinIncrement(s.Settings)
		if sub.Amount < need {
			return drafterr.New(drafterr.KindBidTooLow, "bid %d must be at least %d", sub.Amount, need)
		}
	}
	return nil
}

func checkStatus(s State, sub Submission) error {
	switch s.Status {
	case models.DraftStatusScheduled:
		return drafterr.ErrDraftNotStarted
	case models.DraftStatusCompleted:
		return drafterr.ErrDraftCompleted
	}
	if s.Paused {
		return drafterr.ErrDraftPaused
	}

	auction := s.Format == models.DraftFormatAuction
	switch sub.Action {
	case ActionPick:
		if auction {
			return drafterr.New(drafterr.KindWrongPhase, "auction drafts assign players by bidding")
		}
	case ActionNominate:
		if !auction || s.Phase != models.AuctionPhaseNominating {
			return drafterr.New(drafterr.KindWrongPhase, "nominations are not open")
		}
	case ActionBid:
		if !auction || s.Phase != models.AuctionPhaseBidding {
			return drafterr.New(drafterr.KindWrongPhase, "bidding is not open")
		}
	case ActionAward:
		if !auction || s.Phase == models.AuctionPhaseNominating {
			return drafterr.New(drafterr.KindWrongPhase, "no nomination to award")
		}
	}
	return nil
}

func checkTurn(s State, sub Submission) error {
	switch sub.Action {
	case ActionPick, ActionNominate:
		if sub.TeamID != s.TeamOnClock {
			return drafterr.New(drafterr.KindNotYourTurn, "team %s is not on the clock", sub.TeamID)
		}
	case ActionBid:
		if s.Nomination == nil || s.Nomination.PlayerID != sub.PlayerID {
			return drafterr.New(drafterr.KindNoOpenNomination, "player %s is not up for bidding", sub.PlayerID)
		}
	case ActionAward:
		if s.Nomination == nil || s.Nomination.PlayerID != sub.PlayerID {
			return drafterr.New(drafterr.KindNoOpenNomination, "player %s is not up for bidding", sub.PlayerID)
		}
		if s.Nomination.HighBid == nil || s.Nomination.HighBid.TeamID != sub.TeamID {
			return drafterr.New(drafterr.KindNotYourTurn, "team %s is not the high bidder", sub.TeamID)
		}
	}
	return nil
}

func hasRoomFor(s State, teamID uuid.UUID, pos models.Position) bool {
	roster := s.Rosters[teamID]
	if s.Format == models.DraftFormatAuction {
		if b, ok := s.Budgets[teamID]; ok && b.RemainingSlots <= 0 {
			return false
		}
	}
	if len(s.Settings.RosterSlots) == 0 {
		return len(roster) < s.Settings.Rounds
	}
	return s.Settings.RosterSlots.Fits(roster, pos)
}

// MinBid is the configured minimum bid, at least 1.
func MinBid(s models.DraftSettings) int {
	if s.MinBid < 1 {
		return 1
	}
	return s.MinBid
}

// MinIncrement is the amount a bid must beat the high bid by, at least 1.
func MinIncrement(s models.DraftSettings) int {
	if s.MinBidIncrement < 1 {
		return 1
	}
	return s.MinBidIncrement
}
