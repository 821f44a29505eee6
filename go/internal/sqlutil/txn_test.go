package sqlutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		require.NoError(t, Run(ctx, b, func(pgx.Tx) error { return nil }))
		assert.True(t, b.tx.committed)
		assert.False(t, b.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		boom := errors.New("boom")
		err := Run(ctx, b, func(pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, b.tx.committed)
		assert.True(t, b.tx.rolledBack)
	})

	t.Run("begin failure", func(t *testing.T) {
		b := &fakeBeginner{err: errors.New("no connection")}
		err := Run(ctx, b, func(pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorContains(t, err, "failed to begin transaction")
	})

	t.Run("commit failure", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization failure")}}
		err := Run(ctx, b, func(pgx.Tx) error { return nil })
		assert.ErrorContains(t, err, "failed to commit transaction")
	})
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert pick: %w", &pgconn.PgError{Code: "23505", ConstraintName: "draft_picks_player_unique"})
	name, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "draft_picks_player_unique", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}
