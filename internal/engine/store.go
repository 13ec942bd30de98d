package engine

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianbank/meridian-core/internal/ledger"
	"github.com/meridianbank/meridian-core/internal/platform/db"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

// PgStore is the Postgres-backed Store. Each unit of work maps to one
// database transaction, so ledger deltas, the log append and the audit row
// commit together or roll back together.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore builds a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Atomically implements Store.
func (s *PgStore) Atomically(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgUnitOfWork{
			tx:       tx,
			accounts: ledger.NewTxRepository(tx),
			log:      txlog.NewTxRepository(tx),
		})
	})
}

type pgUnitOfWork struct {
	tx       pgx.Tx
	accounts *ledger.TxRepository
	log      *txlog.TxRepository
}

func (u *pgUnitOfWork) LockAccounts(ctx context.Context, numbers ...string) (map[string]*ledger.Account, error) {
	return u.accounts.LockAccounts(ctx, numbers...)
}

func (u *pgUnitOfWork) ApplyMutations(ctx context.Context, mutations ...ledger.Mutation) error {
	return u.accounts.ApplyMutations(ctx, mutations...)
}

func (u *pgUnitOfWork) AppendTransaction(ctx context.Context, transaction *txlog.Transaction) error {
	return u.log.Append(ctx, transaction)
}

func (u *pgUnitOfWork) GetTransaction(ctx context.Context, id string) (*txlog.Transaction, error) {
	return u.log.Get(ctx, id)
}

func (u *pgUnitOfWork) MarkTransactionReversed(ctx context.Context, id string) error {
	return u.log.MarkReversed(ctx, id)
}

func (u *pgUnitOfWork) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = u.tx.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}
