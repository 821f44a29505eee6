package engine

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Draft is the serialization point for one draft. A single goroutine owns all
// mutable state; every mutation, including timer expiry, arrives as a message
// on its inbox and is handled to completion before the next one.
type Draft struct {
	id        uuid.UUID
	cfg       Config
	store     Store
	hub       *broadcast.Hub
	scheduler *orchestrator.Scheduler
	evaluator orchestrator.RosterNeedEvaluator

	inbox chan any
	done  chan struct{}
	view  atomic.Pointer[models.DraftView]

	st *state // actor goroutine only
}

type pickResult struct {
	pick models.Pick
	err  error
}

type submitPickMsg struct {
	teamID, playerID uuid.UUID
	autopick         bool
	reply            chan pickResult
}

type submitBidMsg struct {
	teamID, playerID uuid.UUID
	amount           int
	reply            chan error
}

type nominateMsg struct {
	teamID, playerID uuid.UUID
	amount           int
	reply            chan error
}

// expireMsg is posted by a timer. token ties it to the arm that created it.
type expireMsg struct {
	purpose orchestrator.Purpose
	slot    int
	token   uint64
}

type startMsg struct {
	reply chan error // nil when fired by the start timer
}

type pauseMsg struct {
	reason string
	reply  chan error
}

type resumeMsg struct {
	reply chan error
}

type subscribeMsg struct {
	reply chan *broadcast.Subscription
}

type pingMsg struct {
	reply chan struct{}
}

func newDraft(st *state, cfg Config, store Store, hub *broadcast.Hub, scheduler *orchestrator.Scheduler) *Draft {
	d := &Draft{
		id:        st.draft.ID,
		cfg:       cfg,
		store:     store,
		hub:       hub,
		scheduler: scheduler,
		evaluator: cfg.Evaluator(st.draft.Settings),
		inbox:     make(chan any, cfg.InboxSize),
		done:      make(chan struct{}),
		st:        st,
	}
	d.refreshView()
	return d
}

// ID returns the draft id.
func (d *Draft) ID() uuid.UUID {
	return d.id
}

// SubmitPick makes a pick for the team on the clock.
func (d *Draft) SubmitPick(ctx context.Context, teamID, playerID uuid.UUID, isAutopick bool) (models.Pick, error) {
	reply := make(chan pickResult, 1)
	if err := d.send(ctx, submitPickMsg{teamID: teamID, playerID: playerID, autopick: isAutopick, reply: reply}); err != nil {
		return models.Pick{}, err
	}
	select {
	case res := <-reply:
		return res.pick, res.err
	case <-ctx.Done():
		return models.Pick{}, ctx.Err()
	case <-d.done:
		return models.Pick{}, drafterr.ErrUnavailable
	}
}

// SubmitBid raises the high bid on the open nomination.
func (d *Draft) SubmitBid(ctx context.Context, teamID, playerID uuid.UUID, amount int) error {
	reply := make(chan error, 1)
	if err := d.send(ctx, submitBidMsg{teamID: teamID, playerID: playerID, amount: amount, reply: reply}); err != nil {
		return err
	}
	return d.wait(ctx, reply)
}

// Nominate opens bidding on a player with an opening bid from the nominating team.
func (d *Draft) Nominate(ctx context.Context, teamID, playerID uuid.UUID, openingBid int) error {
	reply := make(chan error, 1)
	if err := d.send(ctx, nominateMsg{teamID: teamID, playerID: playerID, amount: openingBid, reply: reply}); err != nil {
		return err
	}
	return d.wait(ctx, reply)
}

// Start moves a scheduled draft to in_progress.
func (d *Draft) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := d.send(ctx, startMsg{reply: reply}); err != nil {
		return err
	}
	return d.wait(ctx, reply)
}

// Pause freezes the clock. Turn state is untouched.
func (d *Draft) Pause(ctx context.Context, reason string) error {
	reply := make(chan error, 1)
	if err := d.send(ctx, pauseMsg{reason: reason, reply: reply}); err != nil {
		return err
	}
	return d.wait(ctx, reply)
}

// Resume re-arms the clock with the time it had left.
func (d *Draft) Resume(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := d.send(ctx, resumeMsg{reply: reply}); err != nil {
		return err
	}
	return d.wait(ctx, reply)
}

// Subscribe returns a stream that starts with a snapshot of the current view
// followed by every later event.
func (d *Draft) Subscribe(ctx context.Context) (*broadcast.Subscription, error) {
	reply := make(chan *broadcast.Subscription, 1)
	if err := d.send(ctx, subscribeMsg{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case sub := <-reply:
		return sub, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, drafterr.ErrUnavailable
	}
}

// Alive round-trips a message through the inbox.
func (d *Draft) Alive(ctx context.Context) error {
	reply := make(chan struct{}, 1)
	if err := d.send(ctx, pingMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return drafterr.Wrap(drafterr.KindUnavailable, ctx.Err(), "draft %s did not answer", d.id)
	case <-d.done:
		return drafterr.ErrUnavailable
	}
}

// GetSnapshot returns the latest view without going through the inbox.
func (d *Draft) GetSnapshot() models.DraftView {
	return *d.view.Load()
}

// Done is closed when the actor has stopped.
func (d *Draft) Done() <-chan struct{} {
	return d.done
}

func (d *Draft) send(ctx context.Context, msg any) error {
	select {
	case d.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return drafterr.ErrUnavailable
	}
}

func (d *Draft) wait(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return drafterr.ErrUnavailable
	}
}

// post is used by timers. It never blocks past the actor's lifetime.
func (d *Draft) post(msg any) {
	select {
	case d.inbox <- msg:
	case <-d.done:
	}
}

// run is the actor loop.
func (d *Draft) run(ctx context.Context) {
	defer func() {
		d.scheduler.DisarmAll(d.id)
		d.hub.Close(d.id)
		close(d.done)
		log.Debug().Str("draft_id", d.id.String()).Msg("draft actor stopped")
	}()

	log.Debug().Str("draft_id", d.id.String()).Msg("draft actor started")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		}
	}
}

// handle runs one message to completion. The published view is refreshed
// before the caller is answered so a reply is never ahead of GetSnapshot.
func (d *Draft) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case submitPickMsg:
		pick, err := d.handlePick(ctx, m.teamID, m.playerID, m.autopick)
		d.refreshView()
		m.reply <- pickResult{pick: pick, err: err}
	case submitBidMsg:
		err := d.handleBid(m.teamID, m.playerID, m.amount)
		d.refreshView()
		m.reply <- err
	case nominateMsg:
		err := d.handleNominate(m.teamID, m.playerID, m.amount)
		d.refreshView()
		m.reply <- err
	case expireMsg:
		d.handleExpire(ctx, m)
		d.refreshView()
	case startMsg:
		err := d.handleStart(ctx)
		d.refreshView()
		if m.reply != nil {
			m.reply <- err
		} else if err != nil {
			log.Error().Err(err).Str("draft_id", d.id.String()).Msg("scheduled start failed")
		}
	case pauseMsg:
		err := d.handlePause(ctx, m.reason)
		d.refreshView()
		m.reply <- err
	case resumeMsg:
		err := d.handleResume(ctx)
		d.refreshView()
		m.reply <- err
	case subscribeMsg:
		m.reply <- d.handleSubscribe()
	case pingMsg:
		m.reply <- struct{}{}
	default:
		log.Error().Str("draft_id", d.id.String()).Msgf("unknown message %T", msg)
	}
}
