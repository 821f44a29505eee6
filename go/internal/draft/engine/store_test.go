package engine

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

var errConnReset = errors.New("connection reset by peer")

// fakeStore keeps drafts in memory and can be told to fail pick writes.
type fakeStore struct {
	mu      sync.Mutex
	drafts  map[uuid.UUID]models.Draft
	picks   map[uuid.UUID][]models.Pick
	budgets map[uuid.UUID][]models.AuctionBudget
	players []models.Player
	outbox  []events.Event

	failSaves int
	saveErr   error
	saves     int
}

func newFakeStore(players []models.Player) *fakeStore {
	return &fakeStore{
		drafts:  make(map[uuid.UUID]models.Draft),
		picks:   make(map[uuid.UUID][]models.Pick),
		budgets: make(map[uuid.UUID][]models.AuctionBudget),
		players: players,
	}
}

func (s *fakeStore) CreateDraft(_ context.Context, draft models.Draft, budgets []models.AuctionBudget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = draft
	s.budgets[draft.ID] = slices.Clone(budgets)
	return nil
}

func (s *fakeStore) UpdateDraft(_ context.Context, u DraftUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[u.DraftID]
	if !ok {
		return drafterr.ErrDraftNotFound
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
	s.outbox = append(s.outbox, u.Events...)
	return nil
}

func (s *fakeStore) SavePick(_ context.Context, c PickCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	if s.failSaves > 0 {
		s.failSaves--
		return errConnReset
	}
	for _, p := range s.picks[c.Pick.DraftID] {
		if p.OverallPick == c.Pick.OverallPick {
			return nil
		}
	}
	s.picks[c.Pick.DraftID] = append(s.picks[c.Pick.DraftID], c.Pick)
	if c.Budget != nil {
		budgets := s.budgets[c.Pick.DraftID]
		for i := range budgets {
			if budgets[i].TeamID == c.Budget.TeamID {
				budgets[i] = *c.Budget
			}
		}
	}
	if c.Completed {
		d := s.drafts[c.Pick.DraftID]
		d.Status = models.DraftStatusCompleted
		d.CompletedAt = c.CompletedAt
		s.drafts[c.Pick.DraftID] = d
	}
	s.outbox = append(s.outbox, c.Events...)
	return nil
}

func (s *fakeStore) LoadDraft(_ context.Context, draftID uuid.UUID) (StoredDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return StoredDraft{}, drafterr.New(drafterr.KindDraftNotFound, "draft %s not found", draftID)
	}
	return StoredDraft{
		Draft:   d,
		Picks:   slices.Clone(s.picks[draftID]),
		Budgets: slices.Clone(s.budgets[draftID]),
	}, nil
}

func (s *fakeStore) ListDrafts(_ context.Context, statuses ...models.DraftStatus) ([]models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Draft
	for _, d := range s.drafts {
		if len(statuses) == 0 || slices.Contains(statuses, d.Status) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) ListPlayers(context.Context) ([]models.Player, error) {
	return s.players, nil
}

func (s *fakeStore) setFailSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = n
	s.saves = 0
}

// setSaveErr makes every save fail with err until cleared with nil.
func (s *fakeStore) setSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
	s.saves = 0
}

func (s *fakeStore) saveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *fakeStore) committed(draftID uuid.UUID) []models.Pick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.picks[draftID])
}

func (s *fakeStore) outboxTypes() []events.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Type, len(s.outbox))
	for i, ev := range s.outbox {
		out[i] = ev.Type
	}
	return out
}

func (s *fakeStore) seed(draft models.Draft, picks []models.Pick, budgets []models.AuctionBudget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = draft
	s.picks[draft.ID] = picks
	s.budgets[draft.ID] = budgets
}
