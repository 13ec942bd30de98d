package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridianbank/meridian-core/internal/ledger"
	"github.com/meridianbank/meridian-core/internal/policy"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

// Service executes funds movements. Validation and policy checks are pure
// in-memory computation; only the load and the atomic commit touch storage.
type Service struct {
	store  Store
	policy policy.Policy
	clock  shared.Clock
	logger *slog.Logger
}

// NewService builds the engine service.
func NewService(store Store, pol policy.Policy, clock shared.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{store: store, policy: pol, clock: clock, logger: logger}
}

// Deposit credits an active account and appends a COMPLETED DEPOSIT record.
// The result carries the moment until which the deposit can be reversed.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if !input.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	now := s.clock.Now()
	var result DepositResult

	err := s.store.Atomically(ctx, func(uow UnitOfWork) error {
		locked, err := uow.LockAccounts(ctx, input.ToAccount)
		if err != nil {
			return err
		}
		account, ok := locked[input.ToAccount]
		if !ok {
			return fmt.Errorf("%w: destination account %s", shared.ErrAccountNotFound, input.ToAccount)
		}
		if !account.IsActive() {
			return fmt.Errorf("%w: destination account %s", shared.ErrAccountNotActive, input.ToAccount)
		}

		if err := uow.ApplyMutations(ctx, ledger.Mutation{
			Number:         account.Number,
			DeltaBalance:   input.Amount,
			DeltaAvailable: input.Amount,
			TouchMovement:  &now,
		}); err != nil {
			return err
		}

		transaction := &txlog.Transaction{
			ID:          txlog.NewID(),
			Type:        txlog.TypeDeposit,
			ToAccount:   account.Number,
			Amount:      input.Amount,
			Description: input.Description,
			Status:      txlog.StatusCompleted,
			CreatedAt:   now,
		}
		if err := uow.AppendTransaction(ctx, transaction); err != nil {
			return err
		}
		if err := s.recordAudit(ctx, uow, "funds.deposit", transaction); err != nil {
			return err
		}

		result = DepositResult{
			Transaction:     transaction,
			NewBalance:      account.AvailableBalance.Add(input.Amount),
			RevertibleUntil: now.Add(s.policy.ReversalWindow()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit completed",
		slog.String("transaction", result.Transaction.ID),
		slog.String("account", input.ToAccount),
		slog.String("amount", input.Amount.String()),
	)
	return &result, nil
}

// Transfer moves funds between two active accounts as one atomic unit:
// either both balance mutations and the log append happen, or none do.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if !input.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if input.FromAccount == input.ToAccount {
		return nil, fmt.Errorf("%w: source and destination must differ", shared.ErrValidation)
	}
	if max := s.policy.MaxPerTransfer(); input.Amount.GreaterThan(max) {
		return nil, fmt.Errorf("%w: limit is %s per transfer", shared.ErrTransferLimitExceeded, max)
	}

	now := s.clock.Now()
	var result TransferResult

	err := s.store.Atomically(ctx, func(uow UnitOfWork) error {
		locked, err := uow.LockAccounts(ctx, input.FromAccount, input.ToAccount)
		if err != nil {
			return err
		}
		from, ok := locked[input.FromAccount]
		if !ok {
			return fmt.Errorf("%w: source account %s", shared.ErrAccountNotFound, input.FromAccount)
		}
		to, ok := locked[input.ToAccount]
		if !ok {
			return fmt.Errorf("%w: destination account %s", shared.ErrAccountNotFound, input.ToAccount)
		}
		if !from.IsActive() {
			return fmt.Errorf("%w: source account %s", shared.ErrAccountNotActive, from.Number)
		}
		if !to.IsActive() {
			return fmt.Errorf("%w: destination account %s", shared.ErrAccountNotActive, to.Number)
		}
		if from.AvailableBalance.LessThan(input.Amount) {
			return fmt.Errorf("%w: account %s", shared.ErrInsufficientFunds, from.Number)
		}

		spentToday := from.DailySpent(now)
		newSpent := spentToday.Add(input.Amount)
		if dailyCap := s.policy.DailyTransferCap(); newSpent.GreaterThan(dailyCap) {
			return fmt.Errorf("%w: %s of %s already used today", shared.ErrDailyLimitExceeded, spentToday, dailyCap)
		}

		transferDay := now.Truncate(24 * time.Hour)
		if err := uow.ApplyMutations(ctx,
			ledger.Mutation{
				Number:              from.Number,
				DeltaBalance:        input.Amount.Neg(),
				DeltaAvailable:      input.Amount.Neg(),
				SetDailyTransferred: &newSpent,
				SetLastTransferDay:  &transferDay,
				TouchMovement:       &now,
			},
			ledger.Mutation{
				Number:         to.Number,
				DeltaBalance:   input.Amount,
				DeltaAvailable: input.Amount,
				TouchMovement:  &now,
			},
		); err != nil {
			return err
		}

		transaction := &txlog.Transaction{
			ID:          txlog.NewID(),
			Type:        txlog.TypeTransfer,
			FromAccount: from.Number,
			ToAccount:   to.Number,
			Amount:      input.Amount,
			Description: input.Description,
			Status:      txlog.StatusCompleted,
			CreatedAt:   now,
		}
		if err := uow.AppendTransaction(ctx, transaction); err != nil {
			return err
		}
		if err := s.recordAudit(ctx, uow, "funds.transfer", transaction); err != nil {
			return err
		}

		result = TransferResult{
			Transaction: transaction,
			FromBalance: from.AvailableBalance.Sub(input.Amount),
			ToBalance:   to.AvailableBalance.Add(input.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer completed",
		slog.String("transaction", result.Transaction.ID),
		slog.String("from", input.FromAccount),
		slog.String("to", input.ToAccount),
		slog.String("amount", input.Amount.String()),
	)
	return &result, nil
}

// ReverseDeposit compensates a deposit inside the reversal window. The
// COMPLETED to REVERSED swap is the atomicity boundary: only the caller that
// wins it proceeds with the debit, every other caller observes
// shared.ErrAlreadyReversed.
func (s *Service) ReverseDeposit(ctx context.Context, transactionID string) (*ReversalResult, error) {
	now := s.clock.Now()
	var result ReversalResult

	err := s.store.Atomically(ctx, func(uow UnitOfWork) error {
		original, err := uow.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if original.Type != txlog.TypeDeposit {
			return fmt.Errorf("%w: transaction %s is a %s", shared.ErrNotReversible, original.ID, original.Type)
		}
		if original.Status == txlog.StatusReversed {
			return fmt.Errorf("%w: transaction %s", shared.ErrAlreadyReversed, original.ID)
		}
		if original.Status != txlog.StatusCompleted {
			return fmt.Errorf("%w: transaction %s never completed", shared.ErrNotReversible, original.ID)
		}
		if now.Sub(original.CreatedAt) > s.policy.ReversalWindow() {
			return fmt.Errorf("%w: transaction %s", shared.ErrReversalWindowExpired, original.ID)
		}

		if err := uow.MarkTransactionReversed(ctx, original.ID); err != nil {
			return err
		}

		locked, err := uow.LockAccounts(ctx, original.ToAccount)
		if err != nil {
			return err
		}
		account, ok := locked[original.ToAccount]
		if !ok {
			return fmt.Errorf("%w: account %s", shared.ErrAccountNotFound, original.ToAccount)
		}
		if account.AvailableBalance.LessThan(original.Amount) {
			return fmt.Errorf("%w: account %s cannot cover the reversal", shared.ErrInsufficientFunds, account.Number)
		}

		if err := uow.ApplyMutations(ctx, ledger.Mutation{
			Number:         account.Number,
			DeltaBalance:   original.Amount.Neg(),
			DeltaAvailable: original.Amount.Neg(),
			TouchMovement:  &now,
		}); err != nil {
			return err
		}

		reversal := &txlog.Transaction{
			ID:                    txlog.NewID(),
			Type:                  txlog.TypeReversal,
			ToAccount:             account.Number,
			Amount:                original.Amount,
			Description:           fmt.Sprintf("Reversal of deposit %s", original.ID),
			Status:                txlog.StatusCompleted,
			OriginalTransactionID: original.ID,
			CreatedAt:             now,
		}
		if err := uow.AppendTransaction(ctx, reversal); err != nil {
			return err
		}
		if err := s.recordAudit(ctx, uow, "funds.reverse_deposit", reversal); err != nil {
			return err
		}

		result = ReversalResult{
			Reversal:   reversal,
			NewBalance: account.AvailableBalance.Sub(original.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit reversed",
		slog.String("transaction", transactionID),
		slog.String("reversal", result.Reversal.ID),
	)
	return &result, nil
}

func (s *Service) recordAudit(ctx context.Context, uow UnitOfWork, action string, transaction *txlog.Transaction) error {
	meta := map[string]any{
		"amount": transaction.Amount.String(),
		"type":   transaction.Type,
	}
	if transaction.FromAccount != "" {
		meta["from"] = transaction.FromAccount
	}
	if transaction.ToAccount != "" {
		meta["to"] = transaction.ToAccount
	}
	if transaction.OriginalTransactionID != "" {
		meta["original"] = transaction.OriginalTransactionID
	}
	return uow.RecordAudit(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "transaction",
		EntityID: transaction.ID,
		Meta:     meta,
		At:       transaction.CreatedAt,
	})
}
