package models

import "github.com/shopspring/decimal"

// SettlementResult is the outcome of settling a contest. Pot equals
// Fee + Payout exactly.
type SettlementResult struct {
	ContestID        string
	WinnerID         int64
	LoserID          int64
	Pot              decimal.Decimal
	Fee              decimal.Decimal
	Payout           decimal.Decimal
	WinnerNewBalance decimal.Decimal

	// Post-commit follow-up outcomes; best-effort, never part of the
	// settlement transaction itself.
	OasisMinted  *decimal.Decimal
	MintNote     string
	BackingBets  int
}
