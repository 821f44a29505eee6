package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Store is the durable side of a draft. The engine only ever appends picks;
// implementations must make SavePick idempotent on (draft_id, overall_pick) so
// a retried write cannot create a second pick.
type Store interface {
	CreateDraft(ctx context.Context, draft models.Draft, budgets []models.AuctionBudget) error
	UpdateDraft(ctx context.Context, update DraftUpdate) error
	SavePick(ctx context.Context, commit PickCommit) error
	LoadDraft(ctx context.Context, draftID uuid.UUID) (StoredDraft, error)
	ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]models.Draft, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
}

// DraftUpdate is a lifecycle change written together with its events.
type DraftUpdate struct {
	DraftID     uuid.UUID
	Status      models.DraftStatus
	Paused      bool
	StartedAt   *time.Time
	CompletedAt *time.Time
	Events      []events.Event
}

// PickCommit is everything one pick changes. Budget is set for auction awards.
// When Completed is true the draft row moves to completed in the same write.
type PickCommit struct {
	Pick        models.Pick
	Budget      *models.AuctionBudget
	Completed   bool
	CompletedAt *time.Time
	Events      []events.Event
}

// StoredDraft is a draft as loaded at boot.
type StoredDraft struct {
	Draft   models.Draft
	Picks   []models.Pick // ordered by overall pick
	Budgets []models.AuctionBudget
}
