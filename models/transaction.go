package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags the reason for a balance change
type TransactionType string

const (
	TransactionTypePurchase      TransactionType = "purchase"
	TransactionTypeWin           TransactionType = "win"
	TransactionTypeBet           TransactionType = "bet"
	TransactionTypeEscrowHold    TransactionType = "escrow_hold"
	TransactionTypeEscrowRelease TransactionType = "escrow_release"
	TransactionTypeP2PTransfer   TransactionType = "p2p_transfer"
	TransactionTypeOasisMint     TransactionType = "oasis_mint"
	TransactionTypeOasisSpend    TransactionType = "oasis_spend"
	TransactionTypeReferral      TransactionType = "referral"
	TransactionTypeBackingBet    TransactionType = "backing_bet"
	TransactionTypeBackingPayout TransactionType = "backing_payout"
	TransactionTypeRefund        TransactionType = "refund"
)

// Transaction is an immutable, append-only record of a single signed
// balance movement. Every balance mutation writes exactly one of these
// in the same unit of work; the sum of amounts for an operation equals
// the net balance delta it applied.
type Transaction struct {
	ID          int64           `db:"id"`
	AccountID   int64           `db:"account_id"`
	Amount      decimal.Decimal `db:"amount"`
	Type        TransactionType `db:"type"`
	ReferenceID *string         `db:"reference_id"`
	CreatedAt   time.Time       `db:"created_at"`
}
