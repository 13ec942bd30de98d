package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates account lifecycle states.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusBlocked   Status = "BLOCKED"
	StatusCancelled Status = "CANCELLED"
)

// Type enumerates account products.
type Type string

const (
	TypeSavings   Type = "SAVINGS"
	TypeChecking  Type = "CHECKING"
	TypeFixedTerm Type = "FIXED_TERM"
	TypePayroll   Type = "PAYROLL"
	TypeYouth     Type = "YOUTH"
)

// Account models a ledger account. Balances are mutated exclusively by the
// funds movement engine; the account number is immutable after creation and
// accounts are never physically deleted, cancellation is a status transition.
type Account struct {
	Number           string
	HolderID         string
	Type             Type
	Currency         string
	Status           Status
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	OverdraftLimit   decimal.Decimal
	DailyTransferred decimal.Decimal
	LastTransferDay  *time.Time
	LastMovement     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the account accepts movements.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// DailySpent returns the amount already debited from the account on the given
// day. The accumulator logically resets the first time a transfer debits the
// account on a day after LastTransferDay; comparison uses the account's own
// last-reset date, never wall clock across requests.
func (a *Account) DailySpent(on time.Time) decimal.Decimal {
	if a.LastTransferDay == nil {
		return decimal.Zero
	}
	if sameDay(*a.LastTransferDay, on) {
		return a.DailyTransferred
	}
	return decimal.Zero
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Mutation describes a balance delta plus field sets applied to one account
// inside an atomic commit.
type Mutation struct {
	Number              string
	DeltaBalance        decimal.Decimal
	DeltaAvailable      decimal.Decimal
	SetDailyTransferred *decimal.Decimal
	SetLastTransferDay  *time.Time
	TouchMovement       *time.Time
}
