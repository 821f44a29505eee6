package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/turn"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/validator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func (d *Draft) handlePick(ctx context.Context, teamID, playerID uuid.UUID, autopick bool) (models.Pick, error) {
	return d.commitPick(ctx, validator.Submission{Action: validator.ActionPick, TeamID: teamID, PlayerID: playerID}, autopick)
}

// commitPick validates sub, writes the pick through the store and only then
// applies it. If the write cannot be made durable the draft is left exactly as
// it was, every subscriber gets fatal_error and the draft pauses.
func (d *Draft) commitPick(ctx context.Context, sub validator.Submission, autopick bool) (models.Pick, error) {
	st := d.st
	if err := validator.Validate(st.validatorState(), sub); err != nil {
		log.Debug().
			Err(err).
			Str("draft_id", d.id.String()).
			Str("team_id", sub.TeamID.String()).
			Str("player_id", sub.PlayerID.String()).
			Str("action", sub.Action.String()).
			Msg("submission rejected")
		return models.Pick{}, err
	}

	now := d.now()
	overall := st.nextPick()
	round, pickInRound := turn.Locate(overall, len(st.draft.Settings.TeamOrder))
	pick := models.Pick{
		ID:          uuid.New(),
		DraftID:     d.id,
		Round:       round,
		PickInRound: pickInRound,
		OverallPick: overall,
		TeamID:      sub.TeamID,
		PlayerID:    sub.PlayerID,
		PickedAt:    now,
		IsAutopick:  autopick,
	}

	checkpoint := st.format.clone()
	var budget *models.AuctionBudget
	if a, ok := st.format.(*AuctionState); ok {
		a.Phase = models.AuctionPhaseAwarding
		amount := sub.Amount
		pick.Amount = &amount
		b := a.Budgets[sub.TeamID]
		b.RemainingBudget -= amount
		b.RemainingSlots--
		budget = &b
	}

	completed := overall >= st.draft.Settings.TotalPicks()
	commit := PickCommit{Pick: pick, Budget: budget, Completed: completed}
	commit.Events = append(commit.Events, d.event(st.seq+1, events.TypePickCommitted, events.PickCommittedPayload{Pick: pick, Budget: budget}))
	if completed {
		commit.CompletedAt = &now
		commit.Events = append(commit.Events, d.event(st.seq+2, events.TypeDraftCompleted, d.completedPayload(now)))
	}

	if err := d.withRetry(ctx, "save pick", func(ctx context.Context) error {
		return d.store.SavePick(ctx, commit)
	}); err != nil {
		st.format = checkpoint
		if rejected(err) {
			log.Debug().
				Err(err).
				Str("draft_id", d.id.String()).
				Int("overall_pick", overall).
				Msg("store rejected pick")
			return models.Pick{}, err
		}
		d.fatal(err, overall)
		return models.Pick{}, err
	}

	st.apply(pick)
	if a, ok := st.format.(*AuctionState); ok {
		a.Budgets[sub.TeamID] = *budget
		a.Nomination = nil
		a.Phase = models.AuctionPhaseNominating
	}
	st.seq += uint64(len(commit.Events))
	d.clearClock()
	d.hub.Publish(d.id, commit.Events[0])

	log.Info().
		Str("draft_id", d.id.String()).
		Str("team_id", pick.TeamID.String()).
		Str("player_id", pick.PlayerID.String()).
		Int("overall_pick", pick.OverallPick).
		Bool("is_autopick", pick.IsAutopick).
		Msg("pick committed")

	if completed {
		st.draft.Status = models.DraftStatusCompleted
		st.draft.CompletedAt = &now
		st.draft.UpdatedAt = now
		d.hub.Publish(d.id, commit.Events[1])
		d.scheduler.DisarmAll(d.id)
		log.Info().Str("draft_id", d.id.String()).Int("total_picks", len(st.picks)).Msg("draft completed")
		return pick, nil
	}

	st.advance()
	d.armTurnClock()
	return pick, nil
}

func (d *Draft) completedPayload(now time.Time) events.DraftCompletedPayload {
	p := events.DraftCompletedPayload{
		CompletedAt: now,
		TotalPicks:  d.st.draft.Settings.TotalPicks(),
	}
	if started := d.st.draft.StartedAt; started != nil {
		p.Duration = now.Sub(*started).String()
	}
	return p
}

// withRetry runs fn with a per-attempt timeout, backing off exponentially
// between attempts. It gives up after PersistAttempts.
func (d *Draft) withRetry(ctx context.Context, what string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= d.cfg.PersistAttempts; attempt++ {
		actx, cancel := context.WithTimeout(ctx, d.cfg.PersistTimeout)
		err = fn(actx)
		cancel()
		if err == nil {
			return nil
		}
		if rejected(err) {
			return err
		}
		if attempt == d.cfg.PersistAttempts || ctx.Err() != nil {
			break
		}

		wait := d.cfg.backoff(attempt)
		log.Warn().
			Err(err).
			Str("draft_id", d.id.String()).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msgf("failed to %s, retrying", what)
		if wait > 0 {
			select {
			case <-d.scheduler.Clock().After(wait):
			case <-ctx.Done():
			}
		}
	}
	return drafterr.Wrap(drafterr.KindPersistence, err, "failed to %s", what)
}

// rejected reports whether the store refused a write on the draft rules, which
// no retry can change.
func rejected(err error) bool {
	var de *drafterr.Error
	return errors.As(err, &de) && de.Class() == drafterr.ClassValidation
}

// fatal reports a pick that could not be made durable and pauses the draft
// until a commissioner resumes it. In-memory state has already been restored.
func (d *Draft) fatal(err error, overall int) {
	st := d.st
	now := d.now()
	log.Error().
		Err(err).
		Str("draft_id", d.id.String()).
		Int("overall_pick", overall).
		Msg("pick could not be persisted, rolled back")

	d.emit(events.TypeFatalError, events.ErrorPayload{
		Kind:        string(drafterr.KindFatal),
		Message:     err.Error(),
		OverallPick: overall,
	})

	d.freezeClock(now)
	st.draft.Paused = true
	d.emit(events.TypeDraftPaused, events.DraftPausedPayload{
		PausedAt:    now,
		Reason:      "persistence failure",
		RemainingMS: d.clockRemaining(now).Milliseconds(),
	})
}

// event builds an event with an explicit sequence number without publishing it.
func (d *Draft) event(seq uint64, typ events.Type, payload any) events.Event {
	ev, err := events.New(d.id, typ, seq, d.now(), payload)
	if err != nil {
		log.Error().Err(err).Str("draft_id", d.id.String()).Str("event_type", string(typ)).Msg("failed to build event")
		return events.Event{ID: uuid.New(), DraftID: d.id, Type: typ, Seq: seq, Timestamp: d.now()}
	}
	return ev
}

// emit publishes a live-only event with the next sequence number.
func (d *Draft) emit(typ events.Type, payload any) events.Event {
	d.st.seq++
	ev := d.event(d.st.seq, typ, payload)
	d.hub.Publish(d.id, ev)
	return ev
}
