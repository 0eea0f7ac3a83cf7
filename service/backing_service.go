package service

import (
	"context"
	"fmt"
	"time"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
)

// maxPlayerShareRate caps the backed player's cut of a backing payout
var maxPlayerShareRate = decimal.NewFromFloat(0.5)

type backingService struct {
	uowFactory UnitOfWorkFactory
}

// NewBackingService creates a new backing bet service
func NewBackingService(uowFactory UnitOfWorkFactory) BackingService {
	return &backingService{
		uowFactory: uowFactory,
	}
}

// PlaceBet stakes a third party's wager on a contest participant. The
// supporter is debited immediately; the stake rides until the contest
// settles or the bet is cancelled.
func (s *backingService) PlaceBet(ctx context.Context, contestID string, supporterID, backedPlayerID int64, amount, odds decimal.Decimal) (*models.BackingBet, error) {
	if contestID == "" {
		return nil, fmt.Errorf("contest id cannot be empty")
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("bet amount must be positive, got %s", amount)
	}
	if odds.IsZero() {
		odds = decimal.NewFromInt(1)
	}
	if odds.Sign() <= 0 {
		return nil, fmt.Errorf("odds must be positive, got %s", odds)
	}
	if supporterID == backedPlayerID {
		return nil, fmt.Errorf("cannot back yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireActiveAccount(ctx, uow, supporterID); err != nil {
		return nil, err
	}

	if err := debitAccount(ctx, uow, supporterID, amount, models.TransactionTypeBackingBet, contestID); err != nil {
		return nil, err
	}

	bet := &models.BackingBet{
		ContestID:      contestID,
		BackedPlayerID: backedPlayerID,
		SupporterID:    supporterID,
		Amount:         amount,
		Odds:           odds,
		Status:         models.BackingBetStatusPending,
	}
	if err := uow.BackingBetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create backing bet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// SettleContest resolves every pending bet on the contest in a single
// transaction: bets on the winner pay out at their odds, split between
// supporter and the backed winner; bets on the loser keep their
// already-debited stake. A partial failure rolls the whole call back,
// so the operation is retriable as a unit. A contest with no pending
// bets is a no-op.
func (s *backingService) SettleContest(ctx context.Context, contestID string, winnerID int64, playerShareRate decimal.Decimal) (*models.BackingSettlementResult, error) {
	if playerShareRate.Sign() < 0 {
		playerShareRate = decimal.Zero
	}
	if playerShareRate.GreaterThan(maxPlayerShareRate) {
		playerShareRate = maxPlayerShareRate
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BackingBetRepository().LockPendingByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending bets: %w", err)
	}

	result := &models.BackingSettlementResult{
		ContestID:     contestID,
		PlayerShare:   decimal.Zero,
		SupporterPaid: decimal.Zero,
	}
	if len(bets) == 0 {
		return result, nil
	}

	now := time.Now().UTC()
	playerShareTotal := decimal.Zero

	for _, bet := range bets {
		if bet.BackedPlayerID != winnerID {
			if err := uow.BackingBetRepository().Resolve(ctx, bet.ID, models.BackingBetStatusLost, nil, now); err != nil {
				return nil, fmt.Errorf("failed to mark bet %d lost: %w", bet.ID, err)
			}
			result.LostBets++
			continue
		}

		gross := bet.Amount.Mul(bet.Odds).Round(2)
		playerShare := gross.Mul(playerShareRate).Round(2)
		supporterPayout := gross.Sub(playerShare)

		if err := creditAccount(ctx, uow, bet.SupporterID, supporterPayout, models.TransactionTypeBackingPayout, contestID); err != nil {
			return nil, err
		}

		entry := &models.LedgerEntry{
			ToAccountID:   bet.SupporterID,
			Amount:        supporterPayout,
			FeeToHouse:    decimal.Zero,
			Asset:         models.AssetPrimary,
			ReferenceType: models.ReferenceTypeBackingBet,
			ReferenceID:   contestID,
		}
		if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record backing ledger entry: %w", err)
		}

		if err := uow.BackingBetRepository().Resolve(ctx, bet.ID, models.BackingBetStatusWon, &gross, now); err != nil {
			return nil, fmt.Errorf("failed to mark bet %d won: %w", bet.ID, err)
		}

		playerShareTotal = playerShareTotal.Add(playerShare)
		result.SupporterPaid = result.SupporterPaid.Add(supporterPayout)
		result.WonBets++
	}

	if playerShareTotal.Sign() > 0 {
		if err := creditAccount(ctx, uow, winnerID, playerShareTotal, models.TransactionTypeBackingPayout, contestID); err != nil {
			return nil, err
		}

		entry := &models.LedgerEntry{
			ToAccountID:   winnerID,
			Amount:        playerShareTotal,
			FeeToHouse:    decimal.Zero,
			Asset:         models.AssetPrimary,
			ReferenceType: models.ReferenceTypeBackingBet,
			ReferenceID:   contestID,
		}
		if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record player share ledger entry: %w", err)
		}
		result.PlayerShare = playerShareTotal
	}

	uow.EventBus().Publish(events.BackingSettledEvent{
		ContestID: contestID,
		WonBets:   result.WonBets,
		LostBets:  result.LostBets,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit backing settlement: %w", err)
	}

	return result, nil
}

// Cancel refunds a still-pending bet in full
func (s *backingService) Cancel(ctx context.Context, betID int64, supporterID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BackingBetRepository().LockPending(ctx, betID, supporterID)
	if err != nil {
		return fmt.Errorf("failed to lock bet: %w", err)
	}
	if bet == nil {
		// Distinguish a settled bet from one that never existed or
		// belongs to someone else.
		existing, err := uow.BackingBetRepository().GetByID(ctx, betID)
		if err != nil {
			return fmt.Errorf("failed to get bet: %w", err)
		}
		if existing == nil || existing.SupporterID != supporterID {
			return fmt.Errorf("bet %d for supporter %d: %w", betID, supporterID, ErrBetNotFound)
		}
		return fmt.Errorf("bet %d is %s: %w", betID, existing.Status, ErrAlreadySettled)
	}

	if err := creditAccount(ctx, uow, bet.SupporterID, bet.Amount, models.TransactionTypeRefund, bet.ContestID); err != nil {
		return err
	}

	if err := uow.BackingBetRepository().Resolve(ctx, bet.ID, models.BackingBetStatusRefunded, nil, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark bet refunded: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
