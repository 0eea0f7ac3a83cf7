package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus represents the lifecycle state of an escrow hold
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// EscrowHold represents stake removed from a player balance and held
// for the duration of a contest. A two-party contest has exactly two
// held rows before settlement; the rows transition together, both
// released (contest reached a winner) or both refunded (cancelled).
type EscrowHold struct {
	ID         string          `db:"id"`
	ContestID  string          `db:"contest_id"`
	AccountID  int64           `db:"account_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     EscrowStatus    `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	ReleasedAt *time.Time      `db:"released_at"`
}
