package service

import (
	"context"
	"testing"

	"tavla/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWalletService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockTransactionRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockAccountRepo, mockTransactionRepo, nil, nil, nil, nil, nil)

	starting := decimal.NewFromInt(1000)
	svc := NewWalletService(mockFactory, starting)

	created := &models.Account{
		ID:      7,
		Balance: starting,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAccountRepo.On("Create", ctx, starting).Return(created, nil)
	mockTransactionRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.AccountID == 7 &&
			txn.Amount.Equal(starting) &&
			txn.Type == models.TransactionTypePurchase
	})).Return(nil)

	account, err := svc.CreateAccount(ctx)

	assert.NoError(t, err)
	assert.Equal(t, created, account)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockAccountRepo.AssertExpectations(t)
	mockTransactionRepo.AssertExpectations(t)
}

func TestWalletService_CreateAccount_ZeroStartingBalance(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)
	mockTransactionRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockAccountRepo, mockTransactionRepo, nil, nil, nil, nil, nil)

	svc := NewWalletService(mockFactory, decimal.Zero)

	created := &models.Account{ID: 7}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("Create", ctx, decimal.Zero).Return(created, nil)

	_, err := svc.CreateAccount(ctx)

	assert.NoError(t, err)
	// No seed transaction for a zero balance
	mockTransactionRepo.AssertNotCalled(t, "Record")
}

func TestWalletService_Transfer_SelfTransferRejected(t *testing.T) {
	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewWalletService(mockFactory, decimal.Zero)

	err := svc.Transfer(context.Background(), 5, 5, decimal.NewFromInt(10))

	assert.Error(t, err)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestWalletService_Purchase_BlockedAccount(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAccountRepo := new(MockAccountRepository)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, nil, nil, nil)

	svc := NewWalletService(mockFactory, decimal.Zero)

	blocked := &models.Account{ID: 7, Blocked: true}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("GetByID", ctx, int64(7)).Return(blocked, nil)

	_, err := svc.Purchase(ctx, 7, decimal.NewFromInt(100), "order-1")

	assert.ErrorIs(t, err, ErrAccountBlocked)
	mockAccountRepo.AssertNotCalled(t, "Credit")
	mockUoW.AssertNotCalled(t, "Commit")
}
