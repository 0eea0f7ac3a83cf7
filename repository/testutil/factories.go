package testutil

import (
	"tavla/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewEscrowHold creates a held escrow row for tests
func NewEscrowHold(contestID string, accountID int64, amount string) *models.EscrowHold {
	return &models.EscrowHold{
		ID:        uuid.New().String(),
		ContestID: contestID,
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
		Status:    models.EscrowStatusHeld,
	}
}

// NewBackingBet creates a pending backing bet for tests
func NewBackingBet(contestID string, supporterID, backedPlayerID int64, amount, odds string) *models.BackingBet {
	return &models.BackingBet{
		ContestID:      contestID,
		SupporterID:    supporterID,
		BackedPlayerID: backedPlayerID,
		Amount:         decimal.RequireFromString(amount),
		Odds:           decimal.RequireFromString(odds),
		Status:         models.BackingBetStatusPending,
	}
}
