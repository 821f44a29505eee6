package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// handleStart moves a scheduled draft to in_progress and arms the first clock.
func (d *Draft) handleStart(ctx context.Context) error {
	st := d.st
	switch st.draft.Status {
	case models.DraftStatusInProgress:
		return drafterr.New(drafterr.KindWrongPhase, "draft %s already started", d.id)
	case models.DraftStatusCompleted:
		return drafterr.ErrDraftCompleted
	}

	now := d.now()
	ev := d.event(st.seq+1, events.TypeDraftStarted, events.DraftStartedPayload{
		Format:      st.draft.Format,
		StartedAt:   now,
		TotalRounds: st.draft.Settings.Rounds,
		TotalPicks:  st.draft.Settings.TotalPicks(),
	})
	update := DraftUpdate{
		DraftID:   d.id,
		Status:    models.DraftStatusInProgress,
		StartedAt: &now,
		Events:    []events.Event{ev},
	}
	if err := d.withRetry(ctx, "start draft", func(ctx context.Context) error {
		return d.store.UpdateDraft(ctx, update)
	}); err != nil {
		log.Error().Err(err).Str("draft_id", d.id.String()).Msg("failed to start draft")
		return err
	}

	d.scheduler.Disarm(d.timerKey(orchestrator.PurposeStart))
	st.draft.Status = models.DraftStatusInProgress
	st.draft.StartedAt = &now
	st.draft.UpdatedAt = now
	st.seq++
	d.hub.Publish(d.id, ev)

	log.Info().
		Str("draft_id", d.id.String()).
		Str("format", string(st.draft.Format)).
		Int("teams", len(st.draft.Settings.TeamOrder)).
		Int("rounds", st.draft.Settings.Rounds).
		Msg("draft started")

	d.armTurnClock()
	return nil
}

// handlePause freezes the clock. Pausing a paused draft is a no-op.
func (d *Draft) handlePause(ctx context.Context, reason string) error {
	st := d.st
	switch {
	case st.draft.Status == models.DraftStatusScheduled:
		return drafterr.ErrDraftNotStarted
	case st.draft.Status == models.DraftStatusCompleted:
		return drafterr.ErrDraftCompleted
	case st.draft.Paused:
		return nil
	}

	now := d.now()
	ev := d.event(st.seq+1, events.TypeDraftPaused, events.DraftPausedPayload{
		PausedAt:    now,
		Reason:      reason,
		RemainingMS: d.clockRemaining(now).Milliseconds(),
	})
	update := DraftUpdate{
		DraftID: d.id,
		Status:  st.draft.Status,
		Paused:  true,
		Events:  []events.Event{ev},
	}
	if err := d.withRetry(ctx, "pause draft", func(ctx context.Context) error {
		return d.store.UpdateDraft(ctx, update)
	}); err != nil {
		return err
	}

	d.freezeClock(now)
	st.draft.Paused = true
	st.draft.UpdatedAt = now
	st.seq++
	d.hub.Publish(d.id, ev)

	log.Info().
		Str("draft_id", d.id.String()).
		Str("reason", reason).
		Dur("remaining", d.clockRemaining(now)).
		Msg("draft paused")
	return nil
}

// handleResume re-arms a frozen clock with the time it had left.
func (d *Draft) handleResume(ctx context.Context) error {
	st := d.st
	switch {
	case st.draft.Status == models.DraftStatusScheduled:
		return drafterr.ErrDraftNotStarted
	case st.draft.Status == models.DraftStatusCompleted:
		return drafterr.ErrDraftCompleted
	case !st.draft.Paused:
		return nil
	}

	now := d.now()
	ev := d.event(st.seq+1, events.TypeDraftResumed, events.DraftResumedPayload{ResumedAt: now})
	update := DraftUpdate{
		DraftID: d.id,
		Status:  st.draft.Status,
		Paused:  false,
		Events:  []events.Event{ev},
	}
	if err := d.withRetry(ctx, "resume draft", func(ctx context.Context) error {
		return d.store.UpdateDraft(ctx, update)
	}); err != nil {
		return err
	}

	st.draft.Paused = false
	st.draft.UpdatedAt = now
	st.seq++
	d.hub.Publish(d.id, ev)
	d.thawClock()

	log.Info().Str("draft_id", d.id.String()).Int("overall_pick", st.nextPick()).Msg("draft resumed")
	return nil
}

// handleSubscribe registers a subscriber inside the actor, so nothing can be
// published between the snapshot and the first live event.
func (d *Draft) handleSubscribe() *broadcast.Subscription {
	view := d.GetSnapshot()
	snap := d.event(view.Seq, events.TypeSnapshot, events.SnapshotPayload{View: view})
	return d.hub.Subscribe(d.id, snap)
}
