package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/validator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// handleNominate opens bidding. The nominator's opening bid is the first high bid.
func (d *Draft) handleNominate(teamID, playerID uuid.UUID, amount int) error {
	st := d.st
	sub := validator.Submission{Action: validator.ActionNominate, TeamID: teamID, PlayerID: playerID, Amount: amount}
	if err := validator.Validate(st.validatorState(), sub); err != nil {
		log.Debug().Err(err).Str("draft_id", d.id.String()).Str("team_id", teamID.String()).Msg("nomination rejected")
		return err
	}

	a := st.format.(*AuctionState)
	now := d.now()
	bid := models.Bid{TeamID: teamID, PlayerID: playerID, Amount: amount, PlacedAt: now}
	a.Nomination = &models.Nomination{
		NominatorID: teamID,
		PlayerID:    playerID,
		OpenedAt:    now,
		HighBid:     &bid,
	}
	a.Phase = models.AuctionPhaseBidding

	deadline := d.armClock(orchestrator.PurposeBid, a.NominationTurn, st.draft.Settings.BidDuration(), false)
	d.emit(events.TypeNominationOpened, events.NominationOpenedPayload{Nomination: *a.Nomination, Deadline: deadline})

	log.Info().
		Str("draft_id", d.id.String()).
		Str("team_id", teamID.String()).
		Str("player_id", playerID.String()).
		Int("amount", amount).
		Msg("nomination opened")
	return nil
}

// handleBid records a new high bid and restarts the bid countdown.
func (d *Draft) handleBid(teamID, playerID uuid.UUID, amount int) error {
	st := d.st
	sub := validator.Submission{Action: validator.ActionBid, TeamID: teamID, PlayerID: playerID, Amount: amount}
	if err := validator.Validate(st.validatorState(), sub); err != nil {
		log.Debug().Err(err).Str("draft_id", d.id.String()).Str("team_id", teamID.String()).Int("amount", amount).Msg("bid rejected")
		return err
	}

	a := st.format.(*AuctionState)
	bid := models.Bid{TeamID: teamID, PlayerID: playerID, Amount: amount, PlacedAt: d.now()}
	a.Nomination.HighBid = &bid

	deadline := d.armClock(orchestrator.PurposeBid, a.NominationTurn, st.draft.Settings.BidDuration(), false)
	d.emit(events.TypeBidPlaced, events.BidPlacedPayload{Bid: bid, Deadline: deadline})

	log.Debug().
		Str("draft_id", d.id.String()).
		Str("team_id", teamID.String()).
		Int("amount", amount).
		Msg("bid placed")
	return nil
}

// award commits the nominated player to the high bidder once the countdown ends.
func (d *Draft) award(ctx context.Context) {
	st := d.st
	a, ok := st.format.(*AuctionState)
	if !ok || a.Nomination == nil || a.Nomination.HighBid == nil {
		return
	}
	hb := *a.Nomination.HighBid

	_, err := d.commitPick(ctx, validator.Submission{
		Action:   validator.ActionAward,
		TeamID:   hb.TeamID,
		PlayerID: hb.PlayerID,
		Amount:   hb.Amount,
	}, false)
	if err == nil || drafterr.ClassOf(drafterr.KindOf(err)) != drafterr.ClassValidation {
		return
	}

	// The high bid can no longer be honoured; drop the nomination and move on.
	log.Warn().
		Err(err).
		Str("draft_id", d.id.String()).
		Str("team_id", hb.TeamID.String()).
		Str("player_id", hb.PlayerID.String()).
		Msg("discarding nomination that cannot be awarded")
	a.Nomination = nil
	a.Phase = models.AuctionPhaseNominating
	d.clearClock()
	st.advance()
	d.armTurnClock()
}
