package service_test

import (
	"context"
	"testing"

	"tavla/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletService_Transfer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	from := h.newAccount(t)
	to := h.newAccount(t)

	require.NoError(t, h.wallet.Transfer(ctx, from.ID, to.ID, dec("120")))

	assert.True(t, h.balance(t, from.ID).Equal(dec("380")))
	assert.True(t, h.balance(t, to.ID).Equal(dec("620")))
}

func TestWalletService_Transfer_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	from := h.newAccount(t)
	to := h.newAccount(t)

	err := h.wallet.Transfer(ctx, from.ID, to.ID, dec("501"))
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	// Neither side moved
	assert.True(t, h.balance(t, from.ID).Equal(dec("500")))
	assert.True(t, h.balance(t, to.ID).Equal(dec("500")))
}

func TestWalletService_Transfer_BlockedSender(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	from := h.newAccount(t)
	to := h.newAccount(t)

	require.NoError(t, h.wallet.SetBlocked(ctx, from.ID, true))

	err := h.wallet.Transfer(ctx, from.ID, to.ID, dec("100"))
	assert.ErrorIs(t, err, service.ErrAccountBlocked)
}

func TestWalletService_CreditsReachBlockedAccount(t *testing.T) {
	// A block stops the player acting, not money owed to them
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	require.NoError(t, h.wallet.SetBlocked(ctx, player.ID, true))
	require.NoError(t, h.wallet.ReferralBonus(ctx, player.ID, dec("50"), "ref-1"))

	assert.True(t, h.balance(t, player.ID).Equal(dec("550")))
}

func TestWalletService_GetTransactions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	_, err := h.wallet.Purchase(ctx, player.ID, dec("100"), "order-1")
	require.NoError(t, err)
	_, err = h.wallet.Purchase(ctx, player.ID, dec("200"), "order-2")
	require.NoError(t, err)

	transactions, err := h.wallet.GetTransactions(ctx, player.ID, 2)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	// Newest first
	assert.True(t, transactions[0].Amount.Equal(dec("200")))
	assert.True(t, transactions[1].Amount.Equal(dec("100")))
}

func TestWalletService_GetAccount_NotFound(t *testing.T) {
	h := newHarness(defaultHarnessConfig())
	_, err := h.wallet.GetAccount(context.Background(), 42)
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}
