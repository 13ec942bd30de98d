package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/shared"
)

const accountColumns = `number, holder_id, type, currency, status, balance::text, available_balance::text, overdraft_limit::text, daily_transferred::text, last_transfer_day, last_movement, created_at, updated_at`

// Repository provides pool-backed access to accounts.
type Repository interface {
	Get(ctx context.Context, number string) (*Account, error)
	List(ctx context.Context, holderID string) ([]Account, error)
	Create(ctx context.Context, account *Account) error
	UpdateStatus(ctx context.Context, number string, status Status) error
	NextNumber(ctx context.Context) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres-backed account repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, number string) (*Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	return scanAccount(row)
}

func (r *repository) List(ctx context.Context, holderID string) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{}
	if holderID != "" {
		query += ` WHERE holder_id = $1`
		args = append(args, holderID)
	}
	query += ` ORDER BY number`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (number, holder_id, type, currency, status, balance, available_balance, overdraft_limit, daily_transferred, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)`,
		account.Number, account.HolderID, account.Type, account.Currency, account.Status,
		account.Balance.String(), account.AvailableBalance.String(), account.OverdraftLimit.String(),
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateAccount
		}
		return err
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, number string, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET status = $1, updated_at = NOW() WHERE number = $2`, status, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) NextNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('account_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("GTB%08d", seq), nil
}

// TxRepository provides account access bound to an open transaction. It backs
// the atomic unit of work the funds movement engine commits.
type TxRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds a repository to the given transaction.
func NewTxRepository(tx pgx.Tx) *TxRepository {
	return &TxRepository{tx: tx}
}

// LockAccounts loads the named accounts with FOR UPDATE row locks. Locks are
// always acquired in ascending account-number order so two transfers crossing
// the same pair of accounts in opposite directions cannot deadlock. Accounts
// that do not exist are simply absent from the result.
func (t *TxRepository) LockAccounts(ctx context.Context, numbers ...string) (map[string]*Account, error) {
	ordered := append([]string(nil), numbers...)
	sort.Strings(ordered)

	locked := make(map[string]*Account, len(ordered))
	for _, number := range ordered {
		if _, ok := locked[number]; ok {
			continue
		}
		row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1 FOR UPDATE`, number)
		account, err := scanAccount(row)
		if err != nil {
			if errors.Is(err, shared.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		locked[number] = account
	}
	return locked, nil
}

// ApplyMutations applies balance deltas and field sets to the locked rows.
// Every mutation must hit exactly one row or the whole unit fails.
func (t *TxRepository) ApplyMutations(ctx context.Context, mutations ...Mutation) error {
	for _, m := range mutations {
		query := `UPDATE accounts SET balance = balance + $1, available_balance = available_balance + $2, updated_at = NOW()`
		args := []any{m.DeltaBalance.String(), m.DeltaAvailable.String()}
		if m.SetDailyTransferred != nil {
			args = append(args, m.SetDailyTransferred.String())
			query += fmt.Sprintf(`, daily_transferred = $%d`, len(args))
		}
		if m.SetLastTransferDay != nil {
			args = append(args, *m.SetLastTransferDay)
			query += fmt.Sprintf(`, last_transfer_day = $%d`, len(args))
		}
		if m.TouchMovement != nil {
			args = append(args, *m.TouchMovement)
			query += fmt.Sprintf(`, last_movement = $%d`, len(args))
		}
		args = append(args, m.Number)
		query += fmt.Sprintf(` WHERE number = $%d`, len(args))

		tag, err := t.tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: account %s", shared.ErrConcurrencyConflict, m.Number)
		}
	}
	return nil
}

// Get loads an account inside the transaction without locking it.
func (t *TxRepository) Get(ctx context.Context, number string) (*Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var balance, available, overdraft, transferred string
	err := row.Scan(
		&a.Number, &a.HolderID, &a.Type, &a.Currency, &a.Status,
		&balance, &available, &overdraft, &transferred,
		&a.LastTransferDay, &a.LastMovement, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, err
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("ledger: parse balance: %w", err)
	}
	if a.AvailableBalance, err = decimal.NewFromString(available); err != nil {
		return nil, fmt.Errorf("ledger: parse available balance: %w", err)
	}
	if a.OverdraftLimit, err = decimal.NewFromString(overdraft); err != nil {
		return nil, fmt.Errorf("ledger: parse overdraft limit: %w", err)
	}
	if a.DailyTransferred, err = decimal.NewFromString(transferred); err != nil {
		return nil, fmt.Errorf("ledger: parse daily transferred: %w", err)
	}
	return &a, nil
}
