package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType distinguishes the two currencies moved by ledger entries
type AssetType string

const (
	AssetPrimary AssetType = "primary"
	AssetOasis   AssetType = "oasis"
)

// ReferenceType tags what a ledger entry or transaction refers to
type ReferenceType string

const (
	ReferenceTypeContest    ReferenceType = "contest"
	ReferenceTypeBackingBet ReferenceType = "backing_bet"
	ReferenceTypeTransfer   ReferenceType = "transfer"
	ReferenceTypeMint       ReferenceType = "mint"
)

// LedgerEntry is a double-entry record of a transfer. A nil
// FromAccountID means new supply (minting). For primary-currency
// entries, FeeToHouse + Amount equals the total debited from the
// source side (conservation).
type LedgerEntry struct {
	ID            int64           `db:"id"`
	FromAccountID *int64          `db:"from_account_id"`
	ToAccountID   int64           `db:"to_account_id"`
	Amount        decimal.Decimal `db:"amount"`
	FeeToHouse    decimal.Decimal `db:"fee_to_house"`
	Asset         AssetType       `db:"asset"`
	ReferenceType ReferenceType   `db:"reference_type"`
	ReferenceID   string          `db:"reference_id"`
	CreatedAt     time.Time       `db:"created_at"`
}
