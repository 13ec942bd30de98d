package shared

import "errors"

// Sentinel errors shared across the ledger, transaction log and the funds
// movement engine. Callers classify failures with errors.Is; the engine wraps
// these with the offending account number or limit before returning them.
var (
	// ErrValidation indicates a malformed request the caller must fix.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountNotActive indicates the account exists but is not ACTIVE.
	ErrAccountNotActive = errors.New("account is not active")
	// ErrAccountNotEmpty indicates a cancellation attempt on a funded account.
	ErrAccountNotEmpty = errors.New("account balance must be zero")
	// ErrDuplicateAccount indicates an account number collision on creation.
	ErrDuplicateAccount = errors.New("account number already exists")
	// ErrInsufficientFunds indicates the available balance cannot cover the debit.
	ErrInsufficientFunds = errors.New("insufficient available balance")
	// ErrTransferLimitExceeded indicates the amount is above the per-transfer ceiling.
	ErrTransferLimitExceeded = errors.New("amount exceeds per-transfer limit")
	// ErrDailyLimitExceeded indicates the daily transfer cap would be exceeded.
	ErrDailyLimitExceeded = errors.New("daily transfer limit exceeded")
	// ErrTransactionNotFound indicates the referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrNotReversible indicates the transaction type does not admit reversal.
	ErrNotReversible = errors.New("only deposits can be reversed")
	// ErrAlreadyReversed indicates the deposit was reversed earlier.
	ErrAlreadyReversed = errors.New("deposit already reversed")
	// ErrReversalWindowExpired indicates the reversal window has elapsed.
	ErrReversalWindowExpired = errors.New("reversal window expired")
	// ErrConcurrencyConflict signals an optimistic-lock retry; the whole
	// operation is safe to retry from scratch, never the write half alone.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
)
