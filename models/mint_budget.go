package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MintBudget tracks oasis supply minted for one UTC day against the
// daily cap. Minted never exceeds Cap; enforced under a row lock at
// mint time.
type MintBudget struct {
	Day    time.Time       `db:"day"`
	Minted decimal.Decimal `db:"minted"`
	Cap    decimal.Decimal `db:"cap"`
}

// Remaining returns the amount still mintable today
func (b *MintBudget) Remaining() decimal.Decimal {
	return b.Cap.Sub(b.Minted)
}
