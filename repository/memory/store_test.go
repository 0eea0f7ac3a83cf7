package memory

import (
	"context"
	"testing"

	"tavla/events"
	"tavla/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	factory := NewUnitOfWorkFactory(store, events.NewBus())

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	account, err := uow.AccountRepository().Create(ctx, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.AccountRepository().Debit(ctx, account.ID, decimal.NewFromInt(60)))
	require.NoError(t, uow.Rollback())

	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()
	fetched, err := uow.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(100)))
}

func TestUnitOfWork_CommitKeepsState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	factory := NewUnitOfWorkFactory(store, events.NewBus())

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	account, err := uow.AccountRepository().Create(ctx, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, uow.AccountRepository().Debit(ctx, account.ID, decimal.NewFromInt(60)))
	require.NoError(t, uow.Commit())

	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()
	fetched, err := uow.AccountRepository().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(40)))
}

func TestUnitOfWork_SequentialUnits(t *testing.T) {
	// Begin after Commit must not deadlock on the store mutex
	ctx := context.Background()
	store := NewStore()
	factory := NewUnitOfWorkFactory(store, events.NewBus())

	for i := 0; i < 3; i++ {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := uow.AccountRepository().Create(ctx, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback()) // no-op after commit
	}
}

func TestAccountRepository_DebitErrors(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	factory := NewUnitOfWorkFactory(store, events.NewBus())

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	err := uow.AccountRepository().Debit(ctx, 42, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, service.ErrAccountNotFound)

	account, err := uow.AccountRepository().Create(ctx, decimal.NewFromInt(5))
	require.NoError(t, err)
	err = uow.AccountRepository().Debit(ctx, account.ID, decimal.NewFromInt(6))
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
}
