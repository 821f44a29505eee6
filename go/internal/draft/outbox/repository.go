package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcdev12/dynasty-draft/go/internal/sqlutil"
)

// ErrNotFound is returned when a notified outbox row no longer exists.
var ErrNotFound = errors.New("outbox event not found")

const outboxColumns = `id, draft_id, event_type, seq, payload, metadata, created_at, sent_at`

// Repository reads and acknowledges draft_outbox rows over database/sql.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (OutboxEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM draft_outbox WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return OutboxEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to fetch outbox event: %w", err)
	}
	return ev, nil
}

func (r *Repository) MarkSent(ctx context.Context, ids ...uuid.UUID) error {
	return markSent(ctx, r.db, ids)
}

func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM draft_outbox WHERE sent_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}
	return count, nil
}

// ClaimUnsent locks up to limit unsent rows, hands each to publish and marks
// the ones that were published as sent, all in one transaction. Rows locked
// by another relay are skipped. It returns how many rows were claimed.
func (r *Repository) ClaimUnsent(ctx context.Context, limit int, publish func(OutboxEvent) error) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+outboxColumns+`
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at, seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	var claimed []OutboxEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		claimed = append(claimed, ev)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	sent := publishInOrder(claimed, publish)
	if err := markSent(ctx, tx, sent); err != nil {
		return len(claimed), err
	}
	if err := tx.Commit(); err != nil {
		return len(claimed), fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(claimed), nil
}

// publishInOrder hands events to publish in order and returns the IDs that
// went out. After a draft's first failure the rest of that draft's events
// are held back so the next claim retries them in sequence.
func publishInOrder(events []OutboxEvent, publish func(OutboxEvent) error) []uuid.UUID {
	var sent []uuid.UUID
	held := make(map[uuid.UUID]bool)
	for _, ev := range events {
		if held[ev.DraftID] {
			continue
		}
		if err := publish(ev); err != nil {
			held[ev.DraftID] = true
			continue
		}
		sent = append(sent, ev.ID)
	}
	return sent
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func markSent(ctx context.Context, db execer, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := db.ExecContext(ctx, `
		UPDATE draft_outbox
		SET sent_at = now()
		WHERE id = ANY($1::uuid[]) AND sent_at IS NULL`,
		pq.Array(strs),
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox events sent: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (OutboxEvent, error) {
	var (
		ev      OutboxEvent
		payload []byte
		sentAt  sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.DraftID, &ev.EventType, &ev.Seq, &payload, &ev.Metadata, &ev.CreatedAt, &sentAt); err != nil {
		return OutboxEvent{}, err
	}
	ev.Payload = payload
	ev.SentAt = sqlutil.FromSqlTime(sentAt)
	return ev, nil
}
