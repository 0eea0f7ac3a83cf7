package service

import (
	"context"
	"fmt"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
)

// The ledger primitives below are the single entry point for every
// balance mutation in the system. Each pairs a conditional balance
// update with an append-only transaction row inside the caller's unit
// of work, and publishes the balance change on the transactional bus so
// observers only see committed movements.

// creditAccount increases an account's primary balance and records the
// audit trail. Fails with ErrAccountNotFound; never with insufficient
// funds.
func creditAccount(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal, txType models.TransactionType, referenceID string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive, got %s", amount)
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("credit account %d: %w", accountID, ErrAccountNotFound)
	}

	if err := uow.AccountRepository().Credit(ctx, accountID, amount); err != nil {
		return fmt.Errorf("failed to credit account %d: %w", accountID, err)
	}

	ref := referenceID
	txn := &models.Transaction{
		AccountID:   accountID,
		Amount:      amount,
		Type:        txType,
		ReferenceID: &ref,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:       accountID,
		Amount:          amount,
		NewBalance:      account.Balance.Add(amount),
		TransactionType: txType,
		ReferenceID:     referenceID,
	})

	return nil
}

// debitAccount decreases an account's primary balance only if funds
// cover the amount. On ErrInsufficientFunds no state changes.
func debitAccount(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal, txType models.TransactionType, referenceID string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("debit account %d: %w", accountID, ErrAccountNotFound)
	}

	if err := uow.AccountRepository().Debit(ctx, accountID, amount); err != nil {
		return fmt.Errorf("failed to debit account %d: %w", accountID, err)
	}

	ref := referenceID
	txn := &models.Transaction{
		AccountID:   accountID,
		Amount:      amount.Neg(),
		Type:        txType,
		ReferenceID: &ref,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return fmt.Errorf("failed to record debit transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:       accountID,
		Amount:          amount.Neg(),
		NewBalance:      account.Balance.Sub(amount),
		TransactionType: txType,
		ReferenceID:     referenceID,
	})

	return nil
}

// transferBetween is the composite debit+credit+ledger-entry primitive.
// The source is debited the full amount; the destination receives the
// amount less the fee; the ledger entry documents both so that
// fee + credited = debited.
func transferBetween(ctx context.Context, uow UnitOfWork, fromID, toID int64, amount, feeRate decimal.Decimal, txType models.TransactionType, refType models.ReferenceType, referenceID string) (credited, fee decimal.Decimal, err error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	fee = amount.Mul(feeRate).Round(2)
	credited = amount.Sub(fee)

	if err := debitAccount(ctx, uow, fromID, amount, txType, referenceID); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := creditAccount(ctx, uow, toID, credited, txType, referenceID); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	entry := &models.LedgerEntry{
		FromAccountID: &fromID,
		ToAccountID:   toID,
		Amount:        credited,
		FeeToHouse:    fee,
		Asset:         models.AssetPrimary,
		ReferenceType: refType,
		ReferenceID:   referenceID,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return credited, fee, nil
}

// requireActiveAccount loads an account and rejects missing or blocked
// ones. Used by player-initiated operations; credits owed to a blocked
// account still go through the plain primitives.
func requireActiveAccount(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Account, error) {
	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}
	if account.Blocked {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountBlocked)
	}
	return account, nil
}
