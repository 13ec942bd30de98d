package txlog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates transaction kinds.
type Type string

const (
	TypeDeposit  Type = "DEPOSIT"
	TypeTransfer Type = "TRANSFER"
	TypeReversal Type = "REVERSAL"
	TypePayment  Type = "PAYMENT"
	TypePurchase Type = "PURCHASE"
)

// Status enumerates transaction states. COMPLETED -> REVERSED is the only
// transition that exists; FAILED is reserved for validation-rejected attempts
// that never touch a balance.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusReversed  Status = "REVERSED"
	StatusFailed    Status = "FAILED"
)

// Transaction is an immutable movement record. Accounts are referenced by
// number, not by internal id.
type Transaction struct {
	ID                    string
	Type                  Type
	FromAccount           string
	ToAccount             string
	Amount                decimal.Decimal
	Description           string
	Status                Status
	OriginalTransactionID string
	CreatedAt             time.Time
}

// NewID generates a unique transaction id. Ids are never reused.
func NewID() string {
	return "TXN-" + uuid.NewString()
}

// Filter narrows transaction queries. Zero values mean no constraint.
type Filter struct {
	AccountNumber string
	Type          Type
	From          time.Time
	To            time.Time
}
