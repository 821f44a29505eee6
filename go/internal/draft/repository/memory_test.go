package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

var created = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func testDraft(format models.DraftFormat, teams ...uuid.UUID) models.Draft {
	return models.Draft{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		Format:   format,
		Status:   models.DraftStatusScheduled,
		Settings: models.DraftSettings{
			Rounds:         2,
			SecondsPerPick: 60,
			TeamOrder:      teams,
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func testEvent(t *testing.T, draftID uuid.UUID, typ events.Type, seq uint64) events.Event {
	t.Helper()
	ev, err := events.New(draftID, typ, seq, created, nil)
	require.NoError(t, err)
	return ev
}

func pickFor(draftID, team, player uuid.UUID, overall int) models.Pick {
	return models.Pick{
		ID:          uuid.New(),
		DraftID:     draftID,
		Round:       1,
		PickInRound: overall,
		OverallPick: overall,
		TeamID:      team,
		PlayerID:    player,
		PickedAt:    created,
	}
}

func TestMemoryStore_LoadUnknownDraft(t *testing.T) {
	s := NewMemoryStore(nil)
	_, err := s.LoadDraft(context.Background(), uuid.New())
	assert.ErrorIs(t, err, drafterr.ErrDraftNotFound)

	err = s.UpdateDraft(context.Background(), engine.DraftUpdate{DraftID: uuid.New()})
	assert.ErrorIs(t, err, drafterr.ErrDraftNotFound)
}

func TestMemoryStore_SavePickIsIdempotent(t *testing.T) {
	ctx := context.Background()
	teamA, teamB := uuid.New(), uuid.New()
	draft := testDraft(models.DraftFormatSnake, teamA, teamB)
	s := NewMemoryStore(nil)
	require.NoError(t, s.CreateDraft(ctx, draft, nil))

	player := uuid.New()
	commit := engine.PickCommit{
		Pick:   pickFor(draft.ID, teamA, player, 1),
		Events: []events.Event{testEvent(t, draft.ID, events.TypePickCommitted, 3)},
	}
	require.NoError(t, s.SavePick(ctx, commit))
	require.NoError(t, s.SavePick(ctx, commit), "retrying the same pick must succeed")

	stored, err := s.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Picks, 1)
	assert.Len(t, s.Outbox(), 1)

	t.Run("different pick at the same slot", func(t *testing.T) {
		err := s.SavePick(ctx, engine.PickCommit{Pick: pickFor(draft.ID, teamB, uuid.New(), 1)})
		assert.ErrorContains(t, err, "already holds a different pick")
	})

	t.Run("player taken twice", func(t *testing.T) {
		err := s.SavePick(ctx, engine.PickCommit{Pick: pickFor(draft.ID, teamB, player, 2)})
		assert.ErrorIs(t, err, drafterr.ErrPlayerAlreadyDrafted)
	})
}

func TestMemoryStore_CompletionAndBudgets(t *testing.T) {
	ctx := context.Background()
	teamA, teamB := uuid.New(), uuid.New()
	draft := testDraft(models.DraftFormatAuction, teamA, teamB)
	budgets := []models.AuctionBudget{
		{DraftID: draft.ID, TeamID: teamA, StartingBudget: 100, RemainingBudget: 100, RemainingSlots: 2},
		{DraftID: draft.ID, TeamID: teamB, StartingBudget: 100, RemainingBudget: 100, RemainingSlots: 2},
	}
	s := NewMemoryStore(nil)
	require.NoError(t, s.CreateDraft(ctx, draft, budgets))

	amount := 40
	pick := pickFor(draft.ID, teamB, uuid.New(), 1)
	pick.Amount = &amount
	done := created.Add(time.Hour)
	require.NoError(t, s.SavePick(ctx, engine.PickCommit{
		Pick:        pick,
		Budget:      &models.AuctionBudget{DraftID: draft.ID, TeamID: teamB, StartingBudget: 100, RemainingBudget: 60, RemainingSlots: 1},
		Completed:   true,
		CompletedAt: &done,
		Events: []events.Event{
			testEvent(t, draft.ID, events.TypePickCommitted, 5),
			testEvent(t, draft.ID, events.TypeDraftCompleted, 6),
		},
	}))

	stored, err := s.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, stored.Draft.Status)
	require.NotNil(t, stored.Draft.CompletedAt)
	assert.Equal(t, done, *stored.Draft.CompletedAt)
	require.Len(t, stored.Budgets, 2)
	assert.Equal(t, teamA, stored.Budgets[0].TeamID, "budgets follow team order")
	assert.Equal(t, 100, stored.Budgets[0].RemainingBudget)
	assert.Equal(t, 60, stored.Budgets[1].RemainingBudget)
	assert.Equal(t, 1, stored.Budgets[1].RemainingSlots)
}

func TestMemoryStore_OutboxKeepsDurableEvents(t *testing.T) {
	ctx := context.Background()
	draft := testDraft(models.DraftFormatSnake, uuid.New(), uuid.New())
	s := NewMemoryStore(nil)
	require.NoError(t, s.CreateDraft(ctx, draft, nil))

	started := created.Add(time.Minute)
	require.NoError(t, s.UpdateDraft(ctx, engine.DraftUpdate{
		DraftID:   draft.ID,
		Status:    models.DraftStatusInProgress,
		StartedAt: &started,
		Events: []events.Event{
			testEvent(t, draft.ID, events.TypeDraftStarted, 1),
			testEvent(t, draft.ID, events.TypeClockArmed, 2),
		},
	}))

	out := s.Outbox()
	require.Len(t, out, 1)
	assert.Equal(t, events.TypeDraftStarted, out[0].Type)

	inProgress, err := s.ListDrafts(ctx, models.DraftStatusInProgress)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, draft.ID, inProgress[0].ID)

	scheduled, err := s.ListDrafts(ctx, models.DraftStatusScheduled)
	require.NoError(t, err)
	assert.Empty(t, scheduled)
}

func TestMemoryStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	teamA := uuid.New()
	draft := testDraft(models.DraftFormatSnake, teamA, uuid.New())
	s := NewMemoryStore(nil)
	require.NoError(t, s.CreateDraft(ctx, draft, nil))
	require.NoError(t, s.SavePick(ctx, engine.PickCommit{Pick: pickFor(draft.ID, teamA, uuid.New(), 1)}))

	stored, err := s.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	stored.Draft.Settings.TeamOrder[0] = uuid.Nil
	stored.Picks[0].OverallPick = 99

	again, err := s.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, teamA, again.Draft.Settings.TeamOrder[0])
	assert.Equal(t, 1, again.Picks[0].OverallPick)
}

func TestMemoryStore_UpsertPlayers(t *testing.T) {
	ctx := context.Background()
	p := models.Player{ID: uuid.New(), FullName: "Rookie", Position: models.PositionRB}
	s := NewMemoryStore([]models.Player{p})

	p.ADP = 12.5
	n, err := s.UpsertPlayers(ctx, []models.Player{p, {ID: uuid.New(), FullName: "Kicker", Position: models.PositionK}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	players, err := s.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, 12.5, players[0].ADP)
}

// A registry running on the memory store writes exactly the durable events.
func TestMemoryStore_WithRegistry(t *testing.T) {
	ctx := context.Background()
	players := []models.Player{
		{ID: uuid.New(), FullName: "Quarterback", Position: models.PositionQB, ADP: 1},
		{ID: uuid.New(), FullName: "Runner", Position: models.PositionRB, ADP: 2},
	}
	store := NewMemoryStore(players)
	scheduler := orchestrator.NewScheduler(clockwork.NewFakeClockAt(created))
	reg := engine.NewRegistry(engine.Config{PersistAttempts: 1}, store, broadcast.NewHub(broadcast.DefaultConfig()), scheduler)
	t.Cleanup(func() {
		_ = reg.Shutdown(ctx)
		scheduler.Stop()
	})

	order := []uuid.UUID{uuid.New(), uuid.New()}
	draft, err := reg.CreateDraft(ctx, engine.CreateDraftRequest{
		LeagueID:       uuid.New(),
		Format:         models.DraftFormatLinear,
		Rounds:         1,
		SecondsPerPick: 30,
		TeamOrder:      order,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Start(ctx, draft.ID))

	_, err = reg.SubmitPick(ctx, draft.ID, order[0], players[0].ID)
	require.NoError(t, err)
	_, err = reg.SubmitPick(ctx, draft.ID, order[1], players[1].ID)
	require.NoError(t, err)

	var types []events.Type
	for _, ev := range store.Outbox() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []events.Type{
		events.TypeDraftStarted,
		events.TypePickCommitted,
		events.TypePickCommitted,
		events.TypeDraftCompleted,
	}, types)

	stored, err := store.LoadDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, stored.Draft.Status)
	assert.Len(t, stored.Picks, 2)
}
