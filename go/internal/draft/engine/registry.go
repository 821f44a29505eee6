package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// CreateDraftRequest holds the data needed to create a draft.
type CreateDraftRequest struct {
	LeagueID           uuid.UUID          `json:"league_id" validate:"required"`
	Format             models.DraftFormat `json:"format" validate:"required,oneof=snake linear auction"`
	Rounds             int                `json:"rounds" validate:"min=1,max=50"`
	SecondsPerPick     int                `json:"seconds_per_pick" validate:"min=0,max=86400"`
	StartDate          *time.Time         `json:"start_date,omitempty"`
	TeamOrder          []uuid.UUID        `json:"team_order" validate:"min=2,max=32,unique,dive,required"`
	AuctionBudget      *int               `json:"auction_budget,omitempty" validate:"omitempty,min=1"`
	AutopickEnabled    bool               `json:"autopick_enabled"`
	AutopickGraceSec   int                `json:"autopick_grace_sec,omitempty" validate:"min=0,max=300"`
	ThirdRoundReversal bool               `json:"third_round_reversal,omitempty"`
	RosterSlots        models.RosterSlots `json:"roster_slots,omitempty" validate:"dive"`
	MinBid             int                `json:"min_bid,omitempty" validate:"min=0"`
	MinBidIncrement    int                `json:"min_bid_increment,omitempty" validate:"min=0"`
	NominationSeconds  int                `json:"nomination_seconds,omitempty" validate:"min=0,max=86400"`
	BidSeconds         int                `json:"bid_seconds,omitempty" validate:"min=0,max=3600"`
}

// Settings converts the request into stored draft settings.
func (r CreateDraftRequest) Settings() models.DraftSettings {
	return models.DraftSettings{
		Rounds:             r.Rounds,
		SecondsPerPick:     r.SecondsPerPick,
		AutopickEnabled:    r.AutopickEnabled,
		AutopickGraceSec:   r.AutopickGraceSec,
		TeamOrder:          append([]uuid.UUID(nil), r.TeamOrder...),
		ThirdRoundReversal: r.ThirdRoundReversal,
		RosterSlots:        r.RosterSlots,
		AuctionBudget:      r.AuctionBudget,
		MinBid:             r.MinBid,
		MinBidIncrement:    r.MinBidIncrement,
		NominationSeconds:  r.NominationSeconds,
		BidSeconds:         r.BidSeconds,
	}
}

// Registry owns the running draft actors.
type Registry struct {
	cfg       Config
	store     Store
	hub       *broadcast.Hub
	scheduler *orchestrator.Scheduler
	validate  *validator.Validate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	loads  singleflight.Group

	mu     sync.RWMutex
	drafts map[uuid.UUID]*Draft
}

// NewRegistry creates a registry. Actors live until Shutdown.
func NewRegistry(cfg Config, store Store, hub *broadcast.Hub, scheduler *orchestrator.Scheduler) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:       cfg.withDefaults(),
		store:     store,
		hub:       hub,
		scheduler: scheduler,
		validate:  validator.New(),
		ctx:       ctx,
		cancel:    cancel,
		drafts:    make(map[uuid.UUID]*Draft),
	}
}

// CreateDraft validates and persists a new draft, then starts its actor.
func (r *Registry) CreateDraft(ctx context.Context, req CreateDraftRequest) (models.Draft, error) {
	if err := r.validate.Struct(req); err != nil {
		return models.Draft{}, drafterr.Wrap(drafterr.KindInvalidRequest, err, "validation failed")
	}
	settings := req.Settings()
	if err := validateDraftSettings(req.Format, settings); err != nil {
		return models.Draft{}, drafterr.Wrap(drafterr.KindInvalidRequest, err, "invalid draft settings")
	}

	now := r.scheduler.Clock().Now()
	draft := models.Draft{
		ID:        uuid.New(),
		LeagueID:  req.LeagueID,
		Format:    req.Format,
		Status:    models.DraftStatusScheduled,
		Settings:  settings,
		StartDate: req.StartDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var budgets []models.AuctionBudget
	if draft.Format == models.DraftFormatAuction {
		for _, team := range settings.TeamOrder {
			budgets = append(budgets, models.AuctionBudget{
				DraftID:         draft.ID,
				TeamID:          team,
				StartingBudget:  *settings.AuctionBudget,
				RemainingBudget: *settings.AuctionBudget,
				RemainingSlots:  settings.Rounds,
			})
		}
	}

	if err := r.store.CreateDraft(ctx, draft, budgets); err != nil {
		return models.Draft{}, fmt.Errorf("failed to create draft: %w", err)
	}

	if _, err := r.spawn(ctx, StoredDraft{Draft: draft, Budgets: budgets}); err != nil {
		return models.Draft{}, err
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Str("league_id", draft.LeagueID.String()).
		Str("format", string(draft.Format)).
		Int("teams", len(settings.TeamOrder)).
		Int("rounds", settings.Rounds).
		Msg("created draft")
	return draft, nil
}

// Get returns the actor for a draft, loading it from the store on first use.
func (r *Registry) Get(ctx context.Context, draftID uuid.UUID) (*Draft, error) {
	r.mu.RLock()
	d, ok := r.drafts[draftID]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	v, err, _ := r.loads.Do(draftID.String(), func() (any, error) {
		r.mu.RLock()
		d, ok := r.drafts[draftID]
		r.mu.RUnlock()
		if ok {
			return d, nil
		}
		stored, err := r.store.LoadDraft(ctx, draftID)
		if err != nil {
			return nil, err
		}
		return r.spawn(ctx, stored)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Draft), nil
}

// Recover starts actors for every scheduled or in-progress draft.
func (r *Registry) Recover(ctx context.Context) error {
	drafts, err := r.store.ListDrafts(ctx, models.DraftStatusScheduled, models.DraftStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to list drafts: %w", err)
	}

	var errs []error
	for _, draft := range drafts {
		d, err := r.Get(ctx, draft.ID)
		if err != nil {
			log.Error().Err(err).Str("draft_id", draft.ID.String()).Msg("failed to recover draft")
			errs = append(errs, err)
			continue
		}
		view := d.GetSnapshot()
		log.Info().
			Str("draft_id", draft.ID.String()).
			Str("status", string(view.Status)).
			Int("committed", view.Committed()).
			Msg("recovered draft")
	}
	return errors.Join(errs...)
}

func (r *Registry) spawn(ctx context.Context, stored StoredDraft) (*Draft, error) {
	r.mu.RLock()
	existing, ok := r.drafts[stored.Draft.ID]
	r.mu.RUnlock()
	if ok {
		return existing, nil
	}

	players, err := r.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load player pool: %w", err)
	}

	st := newState(stored.Draft, players)
	st.restore(stored.Picks, stored.Budgets)
	d := newDraft(st, r.cfg, r.store, r.hub, r.scheduler)
	d.rebuildClock()
	d.refreshView()

	r.mu.Lock()
	r.drafts[d.id] = d
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		d.run(r.ctx)
		r.mu.Lock()
		if r.drafts[d.id] == d {
			delete(r.drafts, d.id)
		}
		r.mu.Unlock()
	}()

	r.armStart(d, stored.Draft)
	return d, nil
}

// armStart schedules the automatic start of a draft with a start date.
func (r *Registry) armStart(d *Draft, draft models.Draft) {
	if draft.Status != models.DraftStatusScheduled || draft.StartDate == nil {
		return
	}
	wait := draft.StartDate.Sub(r.scheduler.Clock().Now())
	if wait < 0 {
		wait = 0
	}
	r.scheduler.Arm(orchestrator.TimerKey{DraftID: d.id, Purpose: orchestrator.PurposeStart}, wait, func() {
		d.post(startMsg{})
	})
	log.Info().Str("draft_id", d.id.String()).Time("start_date", *draft.StartDate).Msg("armed draft start")
}

// ActiveDrafts lists drafts with a running actor.
func (r *Registry) ActiveDrafts() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.drafts))
	for id := range r.drafts {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops every actor and waits for them to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("draft registry stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for draft actors: %w", ctx.Err())
	}
}

// SubmitPick submits a manual pick to a draft.
func (r *Registry) SubmitPick(ctx context.Context, draftID, teamID, playerID uuid.UUID) (models.Pick, error) {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return models.Pick{}, err
	}
	return d.SubmitPick(ctx, teamID, playerID, false)
}

// SubmitBid places a bid on a draft's open nomination.
func (r *Registry) SubmitBid(ctx context.Context, draftID, teamID, playerID uuid.UUID, amount int) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.SubmitBid(ctx, teamID, playerID, amount)
}

// Nominate opens bidding on a player.
func (r *Registry) Nominate(ctx context.Context, draftID, teamID, playerID uuid.UUID, openingBid int) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.Nominate(ctx, teamID, playerID, openingBid)
}

// Start starts a scheduled draft now.
func (r *Registry) Start(ctx context.Context, draftID uuid.UUID) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.Start(ctx)
}

// Pause pauses a running draft.
func (r *Registry) Pause(ctx context.Context, draftID uuid.UUID, reason string) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.Pause(ctx, reason)
}

// Resume resumes a paused draft.
func (r *Registry) Resume(ctx context.Context, draftID uuid.UUID) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.Resume(ctx)
}

// Subscribe streams a draft's events starting with a snapshot.
func (r *Registry) Subscribe(ctx context.Context, draftID uuid.UUID) (*broadcast.Subscription, error) {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return d.Subscribe(ctx)
}

// Snapshot returns the current view of a draft.
func (r *Registry) Snapshot(ctx context.Context, draftID uuid.UUID) (models.DraftView, error) {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return models.DraftView{}, err
	}
	return d.GetSnapshot(), nil
}

// Alive checks that a draft's actor is processing messages.
func (r *Registry) Alive(ctx context.Context, draftID uuid.UUID) error {
	d, err := r.Get(ctx, draftID)
	if err != nil {
		return err
	}
	return d.Alive(ctx)
}

// validateDraftSettings applies the rules struct tags cannot express.
func validateDraftSettings(format models.DraftFormat, settings models.DraftSettings) error {
	if settings.AutopickEnabled && settings.SecondsPerPick <= 0 {
		return fmt.Errorf("seconds_per_pick must be greater than 0 when autopick is enabled")
	}
	if len(settings.RosterSlots) > 0 && settings.RosterSlots.Size() < settings.Rounds {
		return fmt.Errorf("roster_slots hold %d players but the draft has %d rounds", settings.RosterSlots.Size(), settings.Rounds)
	}

	switch format {
	case models.DraftFormatAuction:
		if settings.AuctionBudget == nil {
			return fmt.Errorf("auction_budget is required for auction drafts")
		}
		minBid := settings.MinBid
		if minBid < 1 {
			minBid = 1
		}
		if *settings.AuctionBudget < minBid*settings.Rounds {
			return fmt.Errorf("auction_budget %d cannot fill %d rounds at a minimum bid of %d", *settings.AuctionBudget, settings.Rounds, minBid)
		}
	default:
		if settings.AuctionBudget != nil {
			return fmt.Errorf("auction_budget is only valid for auction drafts")
		}
		if settings.MinBid != 0 || settings.MinBidIncrement != 0 || settings.BidSeconds != 0 || settings.NominationSeconds != 0 {
			return fmt.Errorf("bid settings are only valid for auction drafts")
		}
	}
	return nil
}
