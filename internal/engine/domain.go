// Package engine implements the funds movement engine: it validates and
// executes deposits, transfers and time-bounded reversals while preserving
// balance invariants under concurrent access. Every operation commits its
// ledger mutations, its transaction log append and its audit record as a
// single atomic unit.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/ledger"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

// UnitOfWork gives one operation transactional access to the account ledger
// and the transaction log. All writes issued through it become visible
// together or not at all.
type UnitOfWork interface {
	// LockAccounts loads the named accounts under exclusive row locks,
	// acquired in ascending account-number order. Missing accounts are
	// absent from the result rather than an error, so callers can tell
	// which side of a transfer does not exist.
	LockAccounts(ctx context.Context, numbers ...string) (map[string]*ledger.Account, error)
	// ApplyMutations applies balance deltas and field sets to locked accounts.
	ApplyMutations(ctx context.Context, mutations ...ledger.Mutation) error
	// AppendTransaction appends an immutable transaction record.
	AppendTransaction(ctx context.Context, transaction *txlog.Transaction) error
	// GetTransaction loads a transaction record.
	GetTransaction(ctx context.Context, id string) (*txlog.Transaction, error)
	// MarkTransactionReversed flips COMPLETED to REVERSED as a
	// compare-and-swap and fails with shared.ErrAlreadyReversed otherwise.
	MarkTransactionReversed(ctx context.Context, id string) error
	// RecordAudit stores an audit record inside the same unit.
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

// Store runs a function inside an atomic unit of work. When fn returns an
// error nothing issued through the unit is applied.
type Store interface {
	Atomically(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// DepositInput describes a deposit request.
type DepositInput struct {
	ToAccount   string
	Amount      decimal.Decimal
	Description string
}

// DepositResult is returned on a successful deposit.
type DepositResult struct {
	Transaction     *txlog.Transaction
	NewBalance      decimal.Decimal
	RevertibleUntil time.Time
}

// TransferInput describes a transfer request.
type TransferInput struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Description string
}

// TransferResult is returned on a successful transfer.
type TransferResult struct {
	Transaction *txlog.Transaction
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// ReversalResult is returned on a successful deposit reversal.
type ReversalResult struct {
	Reversal   *txlog.Transaction
	NewBalance decimal.Decimal
}
