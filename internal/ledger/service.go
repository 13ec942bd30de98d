package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianbank/meridian-core/internal/shared"
)

// OpenAccountInput carries the fields required to open an account.
type OpenAccountInput struct {
	Number         string
	HolderID       string
	Type           Type
	Currency       string
	OpeningBalance decimal.Decimal
}

// Service is the account directory: it owns account lifecycle while balance
// mutation stays with the funds movement engine.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Open creates a new ACTIVE account. When no number is supplied one is
// generated from the bank series.
func (s *Service) Open(ctx context.Context, input OpenAccountInput) (*Account, error) {
	if input.HolderID == "" {
		return nil, fmt.Errorf("%w: holder id required", shared.ErrValidation)
	}
	if input.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", shared.ErrValidation)
	}
	if input.Currency == "" {
		input.Currency = "GTQ"
	}
	if input.Type == "" {
		input.Type = TypeSavings
	}

	number := input.Number
	if number == "" {
		var err error
		if number, err = s.repo.NextNumber(ctx); err != nil {
			return nil, err
		}
	}

	account := &Account{
		Number:           number,
		HolderID:         input.HolderID,
		Type:             input.Type,
		Currency:         input.Currency,
		Status:           StatusActive,
		Balance:          input.OpeningBalance,
		AvailableBalance: input.OpeningBalance,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "account.open", account.Number, map[string]any{
		"holder":  account.HolderID,
		"type":    account.Type,
		"balance": account.Balance.String(),
	})
	return account, nil
}

// Get returns the account by number.
func (s *Service) Get(ctx context.Context, number string) (*Account, error) {
	return s.repo.Get(ctx, number)
}

// List returns accounts, optionally filtered by holder.
func (s *Service) List(ctx context.Context, holderID string) ([]Account, error) {
	return s.repo.List(ctx, holderID)
}

// Cancel transitions the account to CANCELLED. Accounts are never deleted and
// cancellation is gated on a zero balance.
func (s *Service) Cancel(ctx context.Context, number string) error {
	account, err := s.repo.Get(ctx, number)
	if err != nil {
		return err
	}
	if account.Status == StatusCancelled {
		return fmt.Errorf("%w: account %s already cancelled", shared.ErrAccountNotActive, number)
	}
	if !account.Balance.IsZero() {
		return fmt.Errorf("%w: account %s", shared.ErrAccountNotEmpty, number)
	}
	if err := s.repo.UpdateStatus(ctx, number, StatusCancelled); err != nil {
		return err
	}
	s.recordAudit(ctx, "account.cancel", number, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, number string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "account",
		EntityID: number,
		Meta:     meta,
		At:       time.Now().UTC(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}
