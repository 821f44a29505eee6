package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/mcdev12/dynasty-draft/go/internal/sqlutil"
)

// ListPlayers returns the draftable pool, best ADP first with unranked last.
func (s *PostgresStore) ListPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, full_name, position, team, adp, bye_week
		FROM players
		ORDER BY adp = 0, adp, full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Player, error) {
		var (
			p        models.Player
			position string
		)
		err := row.Scan(&p.ID, &p.FullName, &position, &p.Team, &p.ADP, &p.ByeWeek)
		p.Position = models.Position(position)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// UpsertPlayers inserts or refreshes players and reports how many rows changed.
func (s *PostgresStore) UpsertPlayers(ctx context.Context, players []models.Player) (int64, error) {
	var changed int64
	err := sqlutil.Run(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range players {
			batch.Queue(`
				INSERT INTO players (id, full_name, position, team, adp, bye_week)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE
				SET full_name = EXCLUDED.full_name,
				    position = EXCLUDED.position,
				    team = EXCLUDED.team,
				    adp = EXCLUDED.adp,
				    bye_week = EXCLUDED.bye_week,
				    updated_at = now()`,
				p.ID, p.FullName, string(p.Position), p.Team, p.ADP, p.ByeWeek,
			)
		}
		results := tx.SendBatch(ctx, batch)
		for _, p := range players {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
			}
			changed += tag.RowsAffected()
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
