package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// MemoryStore is an engine.Store for local runs and tests. It enforces the
// same uniqueness rules as the Postgres schema.
type MemoryStore struct {
	mu      sync.RWMutex
	drafts  map[uuid.UUID]models.Draft
	picks   map[uuid.UUID][]models.Pick
	budgets map[uuid.UUID]map[uuid.UUID]models.AuctionBudget
	players []models.Player
	outbox  []events.Event
}

var _ engine.Store = (*MemoryStore)(nil)

func NewMemoryStore(players []models.Player) *MemoryStore {
	return &MemoryStore{
		drafts:  make(map[uuid.UUID]models.Draft),
		picks:   make(map[uuid.UUID][]models.Pick),
		budgets: make(map[uuid.UUID]map[uuid.UUID]models.AuctionBudget),
		players: slices.Clone(players),
	}
}

func (s *MemoryStore) CreateDraft(_ context.Context, draft models.Draft, budgets []models.AuctionBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[draft.ID]; ok {
		return fmt.Errorf("draft %s already exists", draft.ID)
	}
	draft.Settings.TeamOrder = slices.Clone(draft.Settings.TeamOrder)
	s.drafts[draft.ID] = draft
	bs := make(map[uuid.UUID]models.AuctionBudget, len(budgets))
	for _, b := range budgets {
		bs[b.TeamID] = b
	}
	s.budgets[draft.ID] = bs
	return nil
}

func (s *MemoryStore) UpdateDraft(_ context.Context, u engine.DraftUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[u.DraftID]
	if !ok {
		return drafterr.New(drafterr.KindDraftNotFound, "draft %s not found", u.DraftID)
	}
	d.Status = u.Status
	d.Paused = u.Paused
	if u.StartedAt != nil {
		d.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		d.CompletedAt = u.CompletedAt
	}
	s.drafts[u.DraftID] = d
	s.appendOutbox(u.Events)
	return nil
}

func (s *MemoryStore) SavePick(_ context.Context, c engine.PickCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := c.Pick
	d, ok := s.drafts[p.DraftID]
	if !ok {
		return drafterr.New(drafterr.KindDraftNotFound, "draft %s not found", p.DraftID)
	}
	for _, existing := range s.picks[p.DraftID] {
		if existing.OverallPick == p.OverallPick {
			if existing.TeamID != p.TeamID || existing.PlayerID != p.PlayerID {
				return fmt.Errorf("overall pick %d of draft %s already holds a different pick", p.OverallPick, p.DraftID)
			}
			return nil
		}
		if existing.PlayerID == p.PlayerID {
			return drafterr.New(drafterr.KindPlayerAlreadyDrafted, "player %s already drafted", p.PlayerID)
		}
	}

	s.picks[p.DraftID] = append(s.picks[p.DraftID], p)
	if c.Budget != nil {
		s.budgets[p.DraftID][c.Budget.TeamID] = *c.Budget
	}
	if c.Completed {
		d.Status = models.DraftStatusCompleted
		d.CompletedAt = c.CompletedAt
		s.drafts[p.DraftID] = d
	}
	s.appendOutbox(c.Events)
	return nil
}

func (s *MemoryStore) LoadDraft(_ context.Context, draftID uuid.UUID) (engine.StoredDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return engine.StoredDraft{}, drafterr.New(drafterr.KindDraftNotFound, "draft %s not found", draftID)
	}
	d.Settings.TeamOrder = slices.Clone(d.Settings.TeamOrder)

	var budgets []models.AuctionBudget
	for _, team := range d.Settings.TeamOrder {
		if b, ok := s.budgets[draftID][team]; ok {
			budgets = append(budgets, b)
		}
	}
	return engine.StoredDraft{
		Draft:   d,
		Picks:   slices.Clone(s.picks[draftID]),
		Budgets: budgets,
	}, nil
}

func (s *MemoryStore) ListDrafts(_ context.Context, statuses ...models.DraftStatus) ([]models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Draft
	for _, d := range s.drafts {
		if len(statuses) == 0 || slices.Contains(statuses, d.Status) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b models.Draft) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListPlayers(context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.players), nil
}

// UpsertPlayers replaces players by ID and appends new ones.
func (s *MemoryStore) UpsertPlayers(_ context.Context, players []models.Player) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		i := slices.IndexFunc(s.players, func(e models.Player) bool { return e.ID == p.ID })
		if i >= 0 {
			s.players[i] = p
		} else {
			s.players = append(s.players, p)
		}
	}
	return int64(len(players)), nil
}

// Outbox returns the durable events written so far, in commit order.
func (s *MemoryStore) Outbox() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.outbox)
}

func (s *MemoryStore) appendOutbox(evs []events.Event) {
	for _, ev := range evs {
		if ev.Type.Durable() {
			s.outbox = append(s.outbox, ev)
		}
	}
}
