package service

import (
	"context"
	"fmt"
	"time"

	"tavla/events"
	"tavla/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type escrowService struct {
	uowFactory UnitOfWorkFactory
}

// NewEscrowService creates a new escrow service
func NewEscrowService(uowFactory UnitOfWorkFactory) EscrowService {
	return &escrowService{
		uowFactory: uowFactory,
	}
}

// Hold moves stake out of the player's balance into escrow for the
// contest. The debit and the hold row commit together or not at all.
func (s *escrowService) Hold(ctx context.Context, contestID string, accountID int64, amount decimal.Decimal) (string, error) {
	if contestID == "" {
		return "", fmt.Errorf("contest id cannot be empty")
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("stake amount must be positive, got %s", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireActiveAccount(ctx, uow, accountID); err != nil {
		return "", err
	}

	if err := debitAccount(ctx, uow, accountID, amount, models.TransactionTypeEscrowHold, contestID); err != nil {
		return "", err
	}

	hold := &models.EscrowHold{
		ID:        uuid.New().String(),
		ContestID: contestID,
		AccountID: accountID,
		Amount:    amount,
		Status:    models.EscrowStatusHeld,
	}
	if err := uow.EscrowRepository().Create(ctx, hold); err != nil {
		return "", fmt.Errorf("failed to create escrow hold: %w", err)
	}

	uow.EventBus().Publish(events.EscrowHeldEvent{
		HoldID:    hold.ID,
		ContestID: contestID,
		AccountID: accountID,
		Amount:    amount,
	})

	if err := uow.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return hold.ID, nil
}

// Refund returns every held stake of a cancelled contest and marks the
// holds refunded. A contest with no held rows is a no-op, which makes
// the operation safe to retry.
func (s *escrowService) Refund(ctx context.Context, contestID string) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	holds, err := uow.EscrowRepository().LockHeldByContest(ctx, contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock escrow holds: %w", err)
	}
	if len(holds) == 0 {
		return 0, nil
	}

	for _, hold := range holds {
		if err := creditAccount(ctx, uow, hold.AccountID, hold.Amount, models.TransactionTypeRefund, contestID); err != nil {
			return 0, err
		}
	}

	affected, err := uow.EscrowRepository().MarkRefunded(ctx, contestID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to mark holds refunded: %w", err)
	}
	if affected != len(holds) {
		return 0, fmt.Errorf("refund affected %d of %d holds: %w", affected, len(holds), ErrInvalidEscrowState)
	}

	uow.EventBus().Publish(events.EscrowRefundedEvent{
		ContestID: contestID,
		Refunded:  affected,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return affected, nil
}

// releaseEscrow locks the contest's held rows, verifies exactly two are
// present, and marks them released within the caller's transaction.
// Called only from settlement; the caller supplies the winner/loser
// accounting. Any racing duplicate settlement observes zero held rows
// here and fails with ErrInvalidEscrowState.
func releaseEscrow(ctx context.Context, uow UnitOfWork, contestID string) ([]*models.EscrowHold, error) {
	holds, err := uow.EscrowRepository().LockHeldByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock escrow holds: %w", err)
	}
	if len(holds) != 2 {
		return nil, fmt.Errorf("contest %s has %d held rows, want 2: %w", contestID, len(holds), ErrInvalidEscrowState)
	}

	affected, err := uow.EscrowRepository().MarkReleased(ctx, contestID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark holds released: %w", err)
	}
	if affected != 2 {
		return nil, fmt.Errorf("release affected %d holds, want 2: %w", affected, ErrInvalidEscrowState)
	}

	return holds, nil
}
