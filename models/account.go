package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a player wallet with a primary balance and an
// oasis reward-token balance. Balances are mutated only through the
// ledger primitives; the blocked flag is flipped by admin operations.
type Account struct {
	ID           int64           `db:"id"`
	Balance      decimal.Decimal `db:"balance"`
	OasisBalance decimal.Decimal `db:"oasis_balance"`
	Blocked      bool            `db:"blocked"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
