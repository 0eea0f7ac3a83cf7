package repository_test

import (
	"context"
	"testing"
	"time"

	"tavla/events"
	"tavla/models"
	"tavla/repository"
	"tavla/repository/testutil"
	"tavla/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := repository.NewAccountRepository(testDB.DB)

	t.Run("create and get", func(t *testing.T) {
		account, err := repo.Create(ctx, decimal.NewFromInt(500))
		require.NoError(t, err)
		assert.NotZero(t, account.ID)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
		assert.True(t, account.OasisBalance.IsZero())
		assert.False(t, account.Blocked)

		fetched, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})

	t.Run("credit and debit", func(t *testing.T) {
		account, err := repo.Create(ctx, decimal.NewFromInt(100))
		require.NoError(t, err)

		require.NoError(t, repo.Credit(ctx, account.ID, decimal.NewFromInt(50)))
		require.NoError(t, repo.Debit(ctx, account.ID, decimal.NewFromInt(120)))

		fetched, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(30)))
	})

	t.Run("debit rejects insufficient funds", func(t *testing.T) {
		account, err := repo.Create(ctx, decimal.NewFromInt(10))
		require.NoError(t, err)

		err = repo.Debit(ctx, account.ID, decimal.NewFromInt(11))
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		fetched, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(10)))
	})

	t.Run("debit missing account", func(t *testing.T) {
		err := repo.Debit(ctx, 99999, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, service.ErrAccountNotFound)
	})

	t.Run("oasis balance", func(t *testing.T) {
		account, err := repo.Create(ctx, decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, repo.CreditOasis(ctx, account.ID, decimal.NewFromInt(25)))
		err = repo.DebitOasis(ctx, account.ID, decimal.NewFromInt(30))
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		require.NoError(t, repo.DebitOasis(ctx, account.ID, decimal.NewFromInt(25)))
	})

	t.Run("set blocked", func(t *testing.T) {
		account, err := repo.Create(ctx, decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, repo.SetBlocked(ctx, account.ID, true))
		fetched, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, fetched.Blocked)
	})
}

func TestEscrowRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	accountRepo := repository.NewAccountRepository(testDB.DB)
	escrowRepo := repository.NewEscrowRepository(testDB.DB)

	account, err := accountRepo.Create(ctx, decimal.NewFromInt(500))
	require.NoError(t, err)

	t.Run("hold lifecycle", func(t *testing.T) {
		hold := testutil.NewEscrowHold("contest-1", account.ID, "100")
		require.NoError(t, escrowRepo.Create(ctx, hold))
		assert.Equal(t, models.EscrowStatusHeld, hold.Status)
		assert.False(t, hold.CreatedAt.IsZero())

		holds, err := escrowRepo.GetByContest(ctx, "contest-1")
		require.NoError(t, err)
		require.Len(t, holds, 1)

		affected, err := escrowRepo.MarkReleased(ctx, "contest-1", time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		// Already released; the transition is not repeatable
		affected, err = escrowRepo.MarkReleased(ctx, "contest-1", time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 0, affected)
	})

	t.Run("lock held filters by status", func(t *testing.T) {
		hold := testutil.NewEscrowHold("contest-2", account.ID, "50")
		require.NoError(t, escrowRepo.Create(ctx, hold))

		_, err := escrowRepo.MarkRefunded(ctx, "contest-2", time.Now().UTC())
		require.NoError(t, err)

		held, err := escrowRepo.LockHeldByContest(ctx, "contest-2")
		require.NoError(t, err)
		assert.Empty(t, held)
	})
}

func TestIdempotencyRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := repository.NewIdempotencyRepository(testDB.DB)

	record := &models.IdempotencyRecord{
		Key:          "key-1",
		ResponseType: "purchase",
		Payload:      []byte(`{"ok":true}`),
	}

	inserted, err := repo.InsertIfAbsent(ctx, record)
	require.NoError(t, err)
	assert.True(t, inserted)

	// The second insert loses to the first
	inserted, err = repo.InsertIfAbsent(ctx, &models.IdempotencyRecord{
		Key:          "key-1",
		ResponseType: "purchase",
		Payload:      []byte(`{"ok":false}`),
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.Get(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.JSONEq(t, `{"ok":true}`, string(stored.Payload))

	missing, err := repo.Get(ctx, "key-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnitOfWork_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	accountRepo := repository.NewAccountRepository(testDB.DB)

	account, err := accountRepo.Create(ctx, decimal.NewFromInt(100))
	require.NoError(t, err)

	t.Run("rollback undoes changes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		require.NoError(t, uow.AccountRepository().Debit(ctx, account.ID, decimal.NewFromInt(40)))
		require.NoError(t, uow.Rollback())

		fetched, err := accountRepo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("commit persists changes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		require.NoError(t, uow.AccountRepository().Debit(ctx, account.ID, decimal.NewFromInt(40)))
		require.NoError(t, uow.Commit())

		fetched, err := accountRepo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, fetched.Balance.Equal(decimal.NewFromInt(60)))
	})

	t.Run("mint budget lock inside transaction", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		day := time.Now().UTC().Truncate(24 * time.Hour)
		budget, err := uow.MintBudgetRepository().LockDay(ctx, day, decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, budget.Minted.IsZero())
		assert.True(t, budget.Cap.Equal(decimal.NewFromInt(1000)))

		require.NoError(t, uow.MintBudgetRepository().AddMinted(ctx, day, decimal.NewFromInt(10)))
		require.NoError(t, uow.Commit())

		uow2 := factory.Create()
		require.NoError(t, uow2.Begin(ctx))
		defer uow2.Rollback()
		budget, err = uow2.MintBudgetRepository().LockDay(ctx, day, decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, budget.Minted.Equal(decimal.NewFromInt(10)))
	})
}
