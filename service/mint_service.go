package service

import (
	"context"
	"fmt"
	"time"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
)

type mintService struct {
	uowFactory UnitOfWorkFactory
	dailyCap   decimal.Decimal
}

// NewMintService creates a new oasis mint service with the given daily
// supply cap.
func NewMintService(uowFactory UnitOfWorkFactory, dailyCap decimal.Decimal) MintService {
	return &mintService{
		uowFactory: uowFactory,
		dailyCap:   dailyCap,
	}
}

// Mint credits oasis tokens to an account. The day's budget row is
// locked before the check so concurrent mints serialize; minted never
// exceeds the cap.
func (s *mintService) Mint(ctx context.Context, accountID int64, amount decimal.Decimal, reason string, referenceID string) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("mint amount must be positive, got %s", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return decimal.Zero, fmt.Errorf("mint account %d: %w", accountID, ErrAccountNotFound)
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	budget, err := uow.MintBudgetRepository().LockDay(ctx, day, s.dailyCap)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to lock mint budget: %w", err)
	}
	if budget.Minted.Add(amount).GreaterThan(budget.Cap) {
		return decimal.Zero, fmt.Errorf("minting %s with %s remaining: %w", amount, budget.Remaining(), ErrDailyMintCapReached)
	}

	if err := uow.MintBudgetRepository().AddMinted(ctx, day, amount); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update mint budget: %w", err)
	}

	if err := uow.AccountRepository().CreditOasis(ctx, accountID, amount); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit oasis balance: %w", err)
	}

	ref := referenceID
	txn := &models.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Type:        models.TransactionTypeOasisMint,
		ReferenceID: &ref,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record mint transaction: %w", err)
	}

	// From-account is nil: mint is new supply, not a transfer.
	entry := &models.LedgerEntry{
		ToAccountID:   accountID,
		Amount:        amount,
		FeeToHouse:    decimal.Zero,
		Asset:         models.AssetOasis,
		ReferenceType: models.ReferenceTypeMint,
		ReferenceID:   referenceID,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record mint ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.OasisMintedEvent{
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
	})

	if err := uow.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit mint: %w", err)
	}

	return account.OasisBalance.Add(amount), nil
}
