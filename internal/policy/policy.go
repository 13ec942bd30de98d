// Package policy computes per-operation limits consulted by the funds
// movement engine. Implementations must be pure and side-effect free.
package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy exposes the limits the engine enforces. Modelled as an interface so
// limits can vary by account tier without touching the engine.
type Policy interface {
	// MaxPerTransfer is the ceiling on a single transfer amount.
	MaxPerTransfer() decimal.Decimal
	// DailyTransferCap is the ceiling on cumulative debits per account per
	// calendar day.
	DailyTransferCap() decimal.Decimal
	// ReversalWindow is the maximum age of a deposit eligible for reversal.
	ReversalWindow() time.Duration
}

// Fixed is a Policy with configuration-driven constant limits.
type Fixed struct {
	PerTransferMax decimal.Decimal
	DailyCap       decimal.Decimal
	Window         time.Duration
}

// NewFixed builds a Fixed policy.
func NewFixed(perTransferMax, dailyCap decimal.Decimal, window time.Duration) Fixed {
	return Fixed{PerTransferMax: perTransferMax, DailyCap: dailyCap, Window: window}
}

func (p Fixed) MaxPerTransfer() decimal.Decimal   { return p.PerTransferMax }
func (p Fixed) DailyTransferCap() decimal.Decimal { return p.DailyCap }
func (p Fixed) ReversalWindow() time.Duration     { return p.Window }
