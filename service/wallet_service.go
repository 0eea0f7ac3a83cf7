package service

import (
	"context"
	"fmt"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
)

type walletService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance decimal.Decimal
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, startingBalance decimal.Decimal) WalletService {
	return &walletService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// CreateAccount creates a wallet account seeded with the starting balance
func (s *walletService) CreateAccount(ctx context.Context) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().Create(ctx, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if s.startingBalance.Sign() > 0 {
		ref := "signup"
		txn := &models.Transaction{
			AccountID:   account.ID,
			Amount:      s.startingBalance,
			Type:        models.TransactionTypePurchase,
			ReferenceID: &ref,
		}
		if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to record initial transaction: %w", err)
		}
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:      account.ID,
		InitialBalance: account.Balance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account
func (s *walletService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}

	return account, nil
}

// GetTransactions returns recent transactions for an account, newest first
func (s *walletService) GetTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}

	transactions, err := uow.TransactionRepository().GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return transactions, nil
}

// Purchase credits purchased points to an account
func (s *walletService) Purchase(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("purchase amount must be positive, got %s", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := requireActiveAccount(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	if err := creditAccount(ctx, uow, accountID, amount, models.TransactionTypePurchase, referenceID); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance = account.Balance.Add(amount)
	return account, nil
}

// Transfer moves points between two accounts with no fee
func (s *walletService) Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	if fromID == toID {
		return fmt.Errorf("cannot transfer to yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireActiveAccount(ctx, uow, fromID); err != nil {
		return err
	}

	refID := fmt.Sprintf("p2p:%d:%d", fromID, toID)
	if _, _, err := transferBetween(ctx, uow, fromID, toID, amount, decimal.Zero, models.TransactionTypeP2PTransfer, models.ReferenceTypeTransfer, refID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReferralBonus credits a referral reward
func (s *walletService) ReferralBonus(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := creditAccount(ctx, uow, accountID, amount, models.TransactionTypeReferral, referenceID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SpendOasis debits oasis tokens for an in-platform purchase
func (s *walletService) SpendOasis(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("spend amount must be positive, got %s", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireActiveAccount(ctx, uow, accountID); err != nil {
		return err
	}

	if err := uow.AccountRepository().DebitOasis(ctx, accountID, amount); err != nil {
		return fmt.Errorf("failed to debit oasis balance: %w", err)
	}

	ref := referenceID
	txn := &models.Transaction{
		AccountID:   accountID,
		Amount:      amount.Neg(),
		Type:        models.TransactionTypeOasisSpend,
		ReferenceID: &ref,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return fmt.Errorf("failed to record oasis spend: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SetBlocked flips the administrative block flag
func (s *walletService) SetBlocked(ctx context.Context, accountID int64, blocked bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().SetBlocked(ctx, accountID, blocked); err != nil {
		return fmt.Errorf("failed to update block flag: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
