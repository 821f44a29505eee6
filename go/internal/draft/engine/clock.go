package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/turn"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/validator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func (d *Draft) now() time.Time {
	return d.scheduler.Clock().Now()
}

func (d *Draft) timerKey(purpose orchestrator.Purpose) orchestrator.TimerKey {
	return orchestrator.TimerKey{DraftID: d.id, Purpose: purpose}
}

// armClock starts a clock of dur. Display-only clocks get a deadline but no timer.
func (d *Draft) armClock(purpose orchestrator.Purpose, slot int, dur time.Duration, displayOnly bool) time.Time {
	st := d.st
	if st.clock != nil && st.clock.purpose != purpose && !st.clock.displayOnly {
		d.scheduler.Disarm(d.timerKey(st.clock.purpose))
	}

	st.clockSeq++
	token := st.clockSeq
	now := d.now()
	deadline := now.Add(dur)
	if !displayOnly {
		deadline = d.scheduler.Arm(d.timerKey(purpose), dur, func() {
			d.post(expireMsg{purpose: purpose, slot: slot, token: token})
		})
	}
	st.clock = &clockState{
		purpose:     purpose,
		slot:        slot,
		armedAt:     now,
		deadline:    deadline,
		displayOnly: displayOnly,
		token:       token,
	}
	return deadline
}

// announceClock publishes clock_armed for the current clock.
func (d *Draft) announceClock() {
	st := d.st
	c := st.clock
	if c == nil {
		return
	}
	round, pickInRound := turn.Locate(st.nextPick(), len(st.draft.Settings.TeamOrder))
	team := st.onClock()
	if a, ok := st.format.(*AuctionState); ok && a.Nomination != nil && a.Nomination.HighBid != nil {
		team = a.Nomination.HighBid.TeamID
	}
	d.emit(events.TypeClockArmed, events.ClockArmedPayload{
		Purpose:     string(c.purpose),
		TeamID:      team,
		Round:       round,
		PickInRound: pickInRound,
		OverallPick: st.nextPick(),
		ArmedAt:     c.armedAt,
		Deadline:    c.deadline,
		DisplayOnly: c.displayOnly,
	})
}

// armTurnClock arms whichever clock the current state calls for.
func (d *Draft) armTurnClock() {
	d.armTurnClockFor(0)
}

// armTurnClockFor arms the turn clock with a custom duration; zero means the
// full configured duration.
func (d *Draft) armTurnClockFor(dur time.Duration) {
	st := d.st
	if st.draft.Status != models.DraftStatusInProgress || st.complete() {
		return
	}
	settings := st.draft.Settings
	purpose, slot, full := orchestrator.PurposePick, st.nextPick(), settings.PickDuration()
	displayOnly := !settings.AutopickEnabled

	if a, ok := st.format.(*AuctionState); ok {
		slot = a.NominationTurn
		if a.Phase == models.AuctionPhaseBidding {
			purpose, full, displayOnly = orchestrator.PurposeBid, settings.BidDuration(), false
		} else {
			purpose, full = orchestrator.PurposeNomination, settings.NominationDuration()
		}
	}
	if dur <= 0 {
		dur = full
	}
	d.armClock(purpose, slot, dur, displayOnly)
	d.announceClock()
}

// clearClock disarms the current clock.
func (d *Draft) clearClock() {
	st := d.st
	if st.clock == nil {
		return
	}
	if !st.clock.displayOnly {
		d.scheduler.Disarm(d.timerKey(st.clock.purpose))
	}
	st.clock = nil
}

// clockRemaining is the time the clock has left at now.
func (d *Draft) clockRemaining(now time.Time) time.Duration {
	c := d.st.clock
	switch {
	case c == nil:
		return 0
	case c.paused:
		return c.remaining
	}
	if left := c.deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

// freezeClock stops the timer and keeps its remaining time.
func (d *Draft) freezeClock(now time.Time) {
	c := d.st.clock
	if c == nil || c.paused {
		return
	}
	left := d.clockRemaining(now)
	if !c.displayOnly {
		if l, ok := d.scheduler.Disarm(d.timerKey(c.purpose)); ok {
			left = l
		}
	}
	c.remaining = left
	c.paused = true
}

// thawClock re-arms a frozen clock with what it had left. A clock that had run
// out gets its full duration back.
func (d *Draft) thawClock() {
	c := d.st.clock
	if c == nil || !c.paused {
		d.armTurnClock()
		return
	}
	d.armTurnClockFor(c.remaining)
}

// rebuildClock restores the clock after a restart from the last commit time.
// It runs before the actor starts.
func (d *Draft) rebuildClock() {
	st := d.st
	if st.draft.Status != models.DraftStatusInProgress || st.complete() {
		return
	}
	base := d.now()
	if n := len(st.picks); n > 0 {
		base = st.picks[n-1].PickedAt
	} else if st.draft.StartedAt != nil {
		base = *st.draft.StartedAt
	}

	full := st.draft.Settings.PickDuration()
	if st.draft.Format == models.DraftFormatAuction {
		full = st.draft.Settings.NominationDuration()
	}
	left := base.Add(full).Sub(d.now())
	if left <= 0 {
		// already expired; a zero-length timer fires on the next tick
		left = time.Nanosecond
	}
	d.armTurnClockFor(left)
	if st.draft.Paused {
		d.freezeClock(d.now())
	}
	log.Info().
		Str("draft_id", d.id.String()).
		Int("overall_pick", st.nextPick()).
		Dur("remaining", left).
		Bool("paused", st.draft.Paused).
		Msg("rebuilt draft clock")
}

// handleExpire acts on a timer that fired. A timer whose clock was replaced,
// cleared or paused is stale and does nothing.
func (d *Draft) handleExpire(ctx context.Context, m expireMsg) {
	st := d.st
	c := st.clock
	if c == nil || c.token != m.token || c.paused || st.draft.Paused || st.draft.Status != models.DraftStatusInProgress {
		log.Debug().
			Str("draft_id", d.id.String()).
			Str("purpose", string(m.purpose)).
			Int("slot", m.slot).
			Msg("ignoring stale timer")
		return
	}

	switch m.purpose {
	case orchestrator.PurposePick:
		d.autopick(ctx)
	case orchestrator.PurposeNomination:
		d.autonominate(ctx)
	case orchestrator.PurposeBid:
		d.award(ctx)
	}
}

// autopick picks for the team on the clock. A candidate the rules reject is
// dropped from the pool and the evaluator is asked again.
func (d *Draft) autopick(ctx context.Context) {
	st := d.st
	team := st.onClock()
	d.tryCandidates(ctx, team, func(p models.Player) error {
		_, err := d.commitPick(ctx, validator.Submission{Action: validator.ActionPick, TeamID: team, PlayerID: p.ID}, true)
		return err
	})
}

// autonominate nominates for the team on the nomination clock at the minimum bid.
func (d *Draft) autonominate(ctx context.Context) {
	st := d.st
	team := st.onClock()
	minBid := validator.MinBid(st.draft.Settings)
	d.tryCandidates(ctx, team, func(p models.Player) error {
		return d.handleNominate(team, p.ID, minBid)
	})
}

func (d *Draft) tryCandidates(ctx context.Context, team uuid.UUID, try func(models.Player) error) {
	st := d.st
	pool := st.available()
	roster := st.rosters[team]

	for len(pool) > 0 {
		cand, ok := d.evaluator.BestAvailable(roster, pool)
		if !ok {
			break
		}
		err := try(cand)
		if err == nil {
			return
		}
		if drafterr.ClassOf(drafterr.KindOf(err)) != drafterr.ClassValidation {
			// persistence failures already rolled back and paused the draft
			return
		}
		log.Debug().
			Err(err).
			Str("draft_id", d.id.String()).
			Str("player_id", cand.ID.String()).
			Msg("autopick candidate rejected, trying next")

		before := len(pool)
		pool = withoutPlayer(pool, cand.ID)
		if len(pool) == before {
			break
		}
	}

	log.Error().
		Str("draft_id", d.id.String()).
		Str("team_id", team.String()).
		Int("overall_pick", st.nextPick()).
		Msg("no eligible player for autopick, pausing draft")
	if err := d.handlePause(ctx, "no eligible player for autopick"); err != nil {
		log.Error().Err(err).Str("draft_id", d.id.String()).Msg("failed to pause stalled draft")
	}
}

func withoutPlayer(pool []models.Player, id uuid.UUID) []models.Player {
	out := pool[:0:0]
	for _, p := range pool {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
