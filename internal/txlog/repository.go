package txlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/shared"
)

const transactionColumns = `id, type, from_account, to_account, amount::text, description, status, original_transaction_id, created_at`

// Repository provides pool-backed, read-mostly access to the transaction log.
type Repository interface {
	Get(ctx context.Context, id string) (*Transaction, error)
	Find(ctx context.Context, filter Filter, page shared.Pagination) ([]Transaction, int, error)
	History(ctx context.Context, accountNumber string, limit int) ([]Transaction, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed transaction log repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// Find returns transactions newest first, with the total for pagination.
func (r *repository) Find(ctx context.Context, filter Filter, page shared.Pagination) ([]Transaction, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// History returns the most recent non-reversed movements touching an account.
func (r *repository) History(ctx context.Context, accountNumber string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE (from_account = $1 OR to_account = $1) AND status <> $2
		ORDER BY created_at DESC
		LIMIT $3`, accountNumber, StatusReversed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// DeleteOlderThan removes expired records. Retention does not affect
// correctness, only storage. A reversal can outlive its original by up to
// the reversal window; the schema nulls the dangling reference instead of
// failing the sweep.
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any
	if filter.AccountNumber != "" {
		args = append(args, filter.AccountNumber)
		conditions = append(conditions, fmt.Sprintf("(from_account = $%d OR to_account = $%d)", len(args), len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// TxRepository provides transaction log access bound to an open database
// transaction, so the append participates in the engine's atomic commit.
type TxRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds a repository to the given transaction.
func NewTxRepository(tx pgx.Tx) *TxRepository {
	return &TxRepository{tx: tx}
}

// Append stores a new transaction record.
func (t *TxRepository) Append(ctx context.Context, transaction *Transaction) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transactions (id, type, from_account, to_account, amount, description, status, original_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`,
		transaction.ID, transaction.Type, nullable(transaction.FromAccount), nullable(transaction.ToAccount),
		transaction.Amount.String(), transaction.Description, transaction.Status,
		transaction.OriginalTransactionID, transaction.CreatedAt,
	)
	return err
}

// Get loads a transaction inside the database transaction.
func (t *TxRepository) Get(ctx context.Context, id string) (*Transaction, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// MarkReversed flips COMPLETED to REVERSED as a compare-and-swap. Exactly one
// caller can win the swap; every later attempt observes ErrAlreadyReversed.
func (t *TxRepository) MarkReversed(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2 AND status = $3`,
		StatusReversed, id, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAlreadyReversed
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func collect(rows pgx.Rows) ([]Transaction, error) {
	var transactions []Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var tr Transaction
	var from, to, original *string
	var amount string
	err := row.Scan(&tr.ID, &tr.Type, &from, &to, &amount, &tr.Description, &tr.Status, &original, &tr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrTransactionNotFound
		}
		return nil, err
	}
	if from != nil {
		tr.FromAccount = *from
	}
	if to != nil {
		tr.ToAccount = *to
	}
	if original != nil {
		tr.OriginalTransactionID = *original
	}
	if tr.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("txlog: parse amount: %w", err)
	}
	return &tr, nil
}
