package service_test

import (
	"context"
	"testing"

	"tavla/events"
	"tavla/models"
	"tavla/repository/memory"
	"tavla/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// harness wires the full service stack over the in-memory store so
// tests exercise real transactional behavior without a database.
type harness struct {
	store      *memory.Store
	wallet     service.WalletService
	escrow     service.EscrowService
	mint       service.MintService
	backing    service.BackingService
	settlement service.SettlementService
	forfeit    service.ForfeitService
	guard      service.IdempotencyGuard
}

type harnessConfig struct {
	startingBalance decimal.Decimal
	dailyMintCap    decimal.Decimal
	winMintAmount   decimal.Decimal
	playerShareRate decimal.Decimal
}

func defaultHarnessConfig() harnessConfig {
	return harnessConfig{
		startingBalance: decimal.NewFromInt(500),
		dailyMintCap:    decimal.NewFromInt(10000),
		winMintAmount:   decimal.NewFromInt(10),
		playerShareRate: decimal.RequireFromString("0.15"),
	}
}

func newHarness(cfg harnessConfig) *harness {
	store := memory.NewStore()
	bus := events.NewBus()
	factory := memory.NewUnitOfWorkFactory(store, bus)

	wallet := service.NewWalletService(factory, cfg.startingBalance)
	escrow := service.NewEscrowService(factory)
	mint := service.NewMintService(factory, cfg.dailyMintCap)
	backing := service.NewBackingService(factory)
	settlement := service.NewSettlementService(factory, mint, backing, cfg.winMintAmount, cfg.playerShareRate)
	forfeit := service.NewForfeitService(factory, settlement)
	guard := service.NewIdempotencyGuard(factory)

	return &harness{
		store:      store,
		wallet:     wallet,
		escrow:     escrow,
		mint:       mint,
		backing:    backing,
		settlement: settlement,
		forfeit:    forfeit,
		guard:      guard,
	}
}

func (h *harness) newAccount(t *testing.T) *models.Account {
	t.Helper()
	account, err := h.wallet.CreateAccount(context.Background())
	require.NoError(t, err)
	return account
}

func (h *harness) balance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	account, err := h.wallet.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

func (h *harness) oasisBalance(t *testing.T, accountID int64) decimal.Decimal {
	t.Helper()
	account, err := h.wallet.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.OasisBalance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
