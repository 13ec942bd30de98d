package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/meridian-core/internal/shared"
)

// txMaxAttempts bounds how often a serialization-aborted unit is retried.
const txMaxAttempts = 3

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. The transaction is rolled back unless fn returns nil and
// the commit succeeds, so a failure can never leave a partial write behind.
//
// Under RepeatableRead, Postgres aborts a transaction whose snapshot lost a
// row race (SQLSTATE 40001) instead of blocking it. The aborted closure is
// rerun from scratch on a fresh snapshot, so the rerun observes whatever the
// winner committed. A unit still conflicted after txMaxAttempts surfaces
// shared.ErrConcurrencyConflict.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txMaxAttempts; attempt++ {
		err = runInTx(ctx, pool, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
}

func runInTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// isSerializationFailure reports whether err is a serialization failure
// (40001) or a deadlock abort (40P01). Both leave the transaction dead and
// the whole unit is safe to run again.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
