package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ActiveAccount aggregates outbound movement counts for one account.
type ActiveAccount struct {
	AccountNumber    string          `json:"accountNumber"`
	TransactionCount int64           `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

// Summary carries the dashboard headline numbers.
type Summary struct {
	TotalAccounts     int64           `json:"totalAccounts"`
	ActiveAccounts    int64           `json:"activeAccounts"`
	TransactionsToday int64           `json:"transactionsToday"`
	DepositedToday    decimal.Decimal `json:"depositedToday"`
	TransferredToday  decimal.Decimal `json:"transferredToday"`
}

// Repository runs the read-only analytical queries over the transaction log.
type Repository interface {
	MostActiveAccounts(ctx context.Context, order string, limit int) ([]ActiveAccount, error)
	Summary(ctx context.Context, since time.Time) (Summary, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed reporting repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// MostActiveAccounts groups debits by source account, skipping reversed
// records. Only debit types count as activity, mirroring the transfer cap's
// view of outbound movement.
func (r *repository) MostActiveAccounts(ctx context.Context, order string, limit int) ([]ActiveAccount, error) {
	direction := "DESC"
	if order == "asc" {
		direction = "ASC"
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT from_account, COUNT(*) AS transaction_count, COALESCE(SUM(amount), 0)::text AS total_amount
		FROM transactions
		WHERE status <> 'REVERSED'
		  AND type IN ('TRANSFER', 'PAYMENT', 'PURCHASE')
		  AND from_account IS NOT NULL
		GROUP BY from_account
		ORDER BY transaction_count %s
		LIMIT $1`, direction)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ActiveAccount
	for rows.Next() {
		var a ActiveAccount
		var total string
		if err := rows.Scan(&a.AccountNumber, &a.TransactionCount, &total); err != nil {
			return nil, err
		}
		if a.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("reporting: parse total amount: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (r *repository) Summary(ctx context.Context, since time.Time) (Summary, error) {
	var s Summary
	var deposited, transferred string
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(*) FROM accounts WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM transactions WHERE created_at >= $1),
			(SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE created_at >= $1 AND type = 'DEPOSIT' AND status <> 'REVERSED'),
			(SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE created_at >= $1 AND type = 'TRANSFER')`,
		since,
	).Scan(&s.TotalAccounts, &s.ActiveAccounts, &s.TransactionsToday, &deposited, &transferred)
	if err != nil {
		return Summary{}, err
	}
	if s.DepositedToday, err = decimal.NewFromString(deposited); err != nil {
		return Summary{}, fmt.Errorf("reporting: parse deposited total: %w", err)
	}
	if s.TransferredToday, err = decimal.NewFromString(transferred); err != nil {
		return Summary{}, fmt.Errorf("reporting: parse transferred total: %w", err)
	}
	return s, nil
}
