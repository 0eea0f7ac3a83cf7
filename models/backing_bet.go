package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BackingBetStatus represents the lifecycle state of a backing bet
type BackingBetStatus string

const (
	BackingBetStatusPending  BackingBetStatus = "pending"
	BackingBetStatusWon      BackingBetStatus = "won"
	BackingBetStatusLost     BackingBetStatus = "lost"
	BackingBetStatusRefunded BackingBetStatus = "refunded"
)

// BackingBet is a third party's wager on a contest participant. The
// supporter's stake is debited at placement; the bet resolves exactly
// once when the contest settles, or refunds if cancelled first.
type BackingBet struct {
	ID              int64            `db:"id"`
	ContestID       string           `db:"contest_id"`
	BackedPlayerID  int64            `db:"backed_player_id"`
	SupporterID     int64            `db:"supporter_id"`
	Amount          decimal.Decimal  `db:"amount"`
	Odds            decimal.Decimal  `db:"odds"`
	Status          BackingBetStatus `db:"status"`
	PayoutAmount    *decimal.Decimal `db:"payout_amount"`
	CreatedAt       time.Time        `db:"created_at"`
	ResolvedAt      *time.Time       `db:"resolved_at"`
}

// BackingSettlementResult summarizes one contest-wide backing settlement
type BackingSettlementResult struct {
	ContestID     string
	WonBets       int
	LostBets      int
	PlayerShare   decimal.Decimal
	SupporterPaid decimal.Decimal
}
