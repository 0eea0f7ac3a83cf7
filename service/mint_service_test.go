package service_test

import (
	"context"
	"testing"

	"tavla/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintService_Mint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	newBalance, err := h.mint.Mint(ctx, player.ID, dec("25"), "promo", "promo-1")
	require.NoError(t, err)

	assert.True(t, newBalance.Equal(dec("25")))
	assert.True(t, h.oasisBalance(t, player.ID).Equal(dec("25")))
	// Primary balance is untouched
	assert.True(t, h.balance(t, player.ID).Equal(dec("500")))
}

func TestMintService_Mint_UnknownAccount(t *testing.T) {
	h := newHarness(defaultHarnessConfig())
	_, err := h.mint.Mint(context.Background(), 9999, dec("10"), "promo", "promo-1")
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestMintService_DailyCap(t *testing.T) {
	ctx := context.Background()
	cfg := defaultHarnessConfig()
	cfg.dailyMintCap = dec("100")
	h := newHarness(cfg)
	player := h.newAccount(t)

	_, err := h.mint.Mint(ctx, player.ID, dec("60"), "promo", "promo-1")
	require.NoError(t, err)
	_, err = h.mint.Mint(ctx, player.ID, dec("40"), "promo", "promo-2")
	require.NoError(t, err)

	// The cap is exhausted; the next mint changes nothing
	_, err = h.mint.Mint(ctx, player.ID, dec("1"), "promo", "promo-3")
	assert.ErrorIs(t, err, service.ErrDailyMintCapReached)
	assert.True(t, h.oasisBalance(t, player.ID).Equal(dec("100")))
}

func TestMintService_CapRejectsOversizedSingleMint(t *testing.T) {
	ctx := context.Background()
	cfg := defaultHarnessConfig()
	cfg.dailyMintCap = dec("100")
	h := newHarness(cfg)
	player := h.newAccount(t)

	_, err := h.mint.Mint(ctx, player.ID, dec("101"), "promo", "promo-1")
	assert.ErrorIs(t, err, service.ErrDailyMintCapReached)
	assert.True(t, h.oasisBalance(t, player.ID).IsZero())
}

func TestWalletService_SpendOasis(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	_, err := h.mint.Mint(ctx, player.ID, dec("30"), "promo", "promo-1")
	require.NoError(t, err)

	require.NoError(t, h.wallet.SpendOasis(ctx, player.ID, dec("20"), "shop-item-7"))
	assert.True(t, h.oasisBalance(t, player.ID).Equal(dec("10")))

	// Oasis balance cannot go negative
	err = h.wallet.SpendOasis(ctx, player.ID, dec("20"), "shop-item-8")
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	assert.True(t, h.oasisBalance(t, player.ID).Equal(dec("10")))
}
