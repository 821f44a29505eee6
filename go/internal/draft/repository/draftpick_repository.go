package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/mcdev12/dynasty-draft/go/internal/sqlutil"
)

const (
	playerUniqueConstraint = "draft_picks_player_unique"
	producer               = "draftd"
)

// SavePick writes the pick, the winning team's budget, draft completion and
// the durable events in one transaction. Saving the same overall pick twice
// is a no-op so a retry after a lost commit acknowledgement is safe.
func (s *PostgresStore) SavePick(ctx context.Context, c engine.PickCommit) error {
	p := c.Pick
	return sqlutil.Run(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO draft_picks (id, draft_id, round, pick_in_round, overall_pick, team_id, player_id, picked_at, is_autopick, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (draft_id, overall_pick) DO NOTHING`,
			p.ID, p.DraftID, p.Round, p.PickInRound, p.OverallPick, p.TeamID, p.PlayerID, p.PickedAt, p.IsAutopick, p.Amount,
		)
		if name, ok := sqlutil.UniqueViolation(err); ok && name == playerUniqueConstraint {
			return drafterr.Wrap(drafterr.KindPlayerAlreadyDrafted, err, "player %s already drafted", p.PlayerID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert pick: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var team, player uuid.UUID
			err := tx.QueryRow(ctx, `
				SELECT team_id, player_id FROM draft_picks
				WHERE draft_id = $1 AND overall_pick = $2`,
				p.DraftID, p.OverallPick,
			).Scan(&team, &player)
			if err != nil {
				return fmt.Errorf("failed to read existing pick: %w", err)
			}
			if team != p.TeamID || player != p.PlayerID {
				return fmt.Errorf("overall pick %d of draft %s already holds a different pick", p.OverallPick, p.DraftID)
			}
			return nil
		}

		if b := c.Budget; b != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO auction_budgets (draft_id, team_id, starting_budget, remaining_budget, remaining_slots)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (draft_id, team_id) DO UPDATE
				SET remaining_budget = EXCLUDED.remaining_budget,
				    remaining_slots = EXCLUDED.remaining_slots`,
				p.DraftID, b.TeamID, b.StartingBudget, b.RemainingBudget, b.RemainingSlots,
			)
			if err != nil {
				return fmt.Errorf("failed to update auction budget: %w", err)
			}
		}

		if c.Completed {
			_, err := tx.Exec(ctx, `
				UPDATE drafts
				SET status = $2, completed_at = $3, updated_at = now()
				WHERE id = $1`,
				p.DraftID, string(models.DraftStatusCompleted), c.CompletedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to complete draft: %w", err)
			}
		}

		return insertOutbox(ctx, tx, c.Events)
	})
}

func (s *PostgresStore) picksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, draft_id, round, pick_in_round, overall_pick, team_id, player_id, picked_at, is_autopick, amount
		FROM draft_picks
		WHERE draft_id = $1
		ORDER BY overall_pick`,
		draftID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft picks: %w", err)
	}
	picks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Pick, error) {
		var p models.Pick
		err := row.Scan(&p.ID, &p.DraftID, &p.Round, &p.PickInRound, &p.OverallPick, &p.TeamID, &p.PlayerID, &p.PickedAt, &p.IsAutopick, &p.Amount)
		p.PickedAt = p.PickedAt.UTC()
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get draft picks: %w", err)
	}
	return picks, nil
}

func (s *PostgresStore) budgetsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.AuctionBudget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT draft_id, team_id, starting_budget, remaining_budget, remaining_slots
		FROM auction_budgets
		WHERE draft_id = $1`,
		draftID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction budgets: %w", err)
	}
	budgets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuctionBudget, error) {
		var b models.AuctionBudget
		err := row.Scan(&b.DraftID, &b.TeamID, &b.StartingBudget, &b.RemainingBudget, &b.RemainingSlots)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get auction budgets: %w", err)
	}
	return budgets, nil
}

// outboxRow is one draft_outbox insert.
type outboxRow struct {
	ID        uuid.UUID
	DraftID   uuid.UUID
	EventType string
	Seq       int64
	Payload   []byte
	Metadata  []byte
}

// outboxRows keeps the durable events. The payload is the full envelope so
// downstream consumers see exactly what websocket subscribers saw; metadata
// becomes message headers on the bus.
func outboxRows(evs []events.Event) ([]outboxRow, error) {
	var rows []outboxRow
	for _, ev := range evs {
		if !ev.Type.Durable() {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
		}
		metadata, err := json.Marshal(map[string]string{
			"Event-Seq": strconv.FormatUint(ev.Seq, 10),
			"Producer":  producer,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s metadata: %w", ev.Type, err)
		}
		rows = append(rows, outboxRow{
			ID:        ev.ID,
			DraftID:   ev.DraftID,
			EventType: string(ev.Type),
			Seq:       int64(ev.Seq),
			Payload:   payload,
			Metadata:  metadata,
		})
	}
	return rows, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, evs []events.Event) error {
	rows, err := outboxRows(evs)
	if err != nil {
		return err
	}
	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO draft_outbox (id, draft_id, event_type, seq, payload, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.DraftID, r.EventType, r.Seq, r.Payload, r.Metadata,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox %s: %w", r.EventType, err)
		}
	}
	return nil
}
