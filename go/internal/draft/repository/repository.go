// Package repository persists drafts, picks, auction budgets and outbox rows.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/mcdev12/dynasty-draft/go/internal/sqlutil"
)

// PostgresStore is the production engine.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ engine.Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
	}
}

// Ping checks the pool can reach the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const draftColumns = `id, league_id, format, status, paused, settings, start_date, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) CreateDraft(ctx context.Context, draft models.Draft, budgets []models.AuctionBudget) error {
	settings, err := json.Marshal(draft.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	return sqlutil.Run(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO drafts (`+draftColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			draft.ID, draft.LeagueID, string(draft.Format), string(draft.Status), draft.Paused, settings,
			draft.StartDate, draft.StartedAt, draft.CompletedAt, draft.CreatedAt, draft.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create draft: %w", err)
		}
		if len(budgets) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, b := range budgets {
			batch.Queue(`
				INSERT INTO auction_budgets (draft_id, team_id, starting_budget, remaining_budget, remaining_slots)
				VALUES ($1, $2, $3, $4, $5)`,
				draft.ID, b.TeamID, b.StartingBudget, b.RemainingBudget, b.RemainingSlots,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create auction budgets: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) UpdateDraft(ctx context.Context, u engine.DraftUpdate) error {
	return sqlutil.Run(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE drafts
			SET status = $2,
			    paused = $3,
			    started_at = COALESCE($4, started_at),
			    completed_at = COALESCE($5, completed_at),
			    updated_at = now()
			WHERE id = $1`,
			u.DraftID, string(u.Status), u.Paused, u.StartedAt, u.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return drafterr.New(drafterr.KindDraftNotFound, "draft %s not found", u.DraftID)
		}
		return insertOutbox(ctx, tx, u.Events)
	})
}

func (s *PostgresStore) LoadDraft(ctx context.Context, draftID uuid.UUID) (engine.StoredDraft, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, draftID)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.StoredDraft{}, drafterr.Wrap(drafterr.KindDraftNotFound, err, "draft %s not found", draftID)
	}
	if err != nil {
		return engine.StoredDraft{}, fmt.Errorf("failed to get draft: %w", err)
	}

	picks, err := s.picksByDraft(ctx, draftID)
	if err != nil {
		return engine.StoredDraft{}, err
	}
	budgets, err := s.budgetsByDraft(ctx, draftID)
	if err != nil {
		return engine.StoredDraft{}, err
	}
	return engine.StoredDraft{Draft: draft, Picks: picks, Budgets: budgets}, nil
}

func (s *PostgresStore) ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts`
	var args []any
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, names)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	drafts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Draft, error) {
		return scanDraft(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

func scanDraft(row pgx.Row) (models.Draft, error) {
	var (
		d        models.Draft
		format   string
		status   string
		settings []byte
	)
	err := row.Scan(
		&d.ID, &d.LeagueID, &format, &status, &d.Paused, &settings,
		&d.StartDate, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return models.Draft{}, err
	}
	d.Format = models.DraftFormat(format)
	d.Status = models.DraftStatus(status)
	if err := json.Unmarshal(settings, &d.Settings); err != nil {
		return models.Draft{}, fmt.Errorf("failed to unmarshal settings for draft %s: %w", d.ID, err)
	}
	d.StartDate = utc(d.StartDate)
	d.StartedAt = utc(d.StartedAt)
	d.CompletedAt = utc(d.CompletedAt)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
