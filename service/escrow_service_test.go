package service_test

import (
	"context"
	"testing"

	"tavla/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrowService_Hold(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	holdID, err := h.escrow.Hold(ctx, "contest-1", player.ID, dec("100"))
	require.NoError(t, err)
	assert.NotEmpty(t, holdID)

	assert.True(t, h.balance(t, player.ID).Equal(dec("400")))

	transactions, err := h.wallet.GetTransactions(ctx, player.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, transactions)
	assert.True(t, transactions[0].Amount.Equal(dec("-100")))
}

func TestEscrowService_Hold_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	_, err := h.escrow.Hold(ctx, "contest-1", player.ID, dec("600"))
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	// Nothing moved and no hold was created
	assert.True(t, h.balance(t, player.ID).Equal(dec("500")))
	refunded, err := h.escrow.Refund(ctx, "contest-1")
	require.NoError(t, err)
	assert.Equal(t, 0, refunded)
}

func TestEscrowService_Hold_BlockedAccount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	require.NoError(t, h.wallet.SetBlocked(ctx, player.ID, true))

	_, err := h.escrow.Hold(ctx, "contest-1", player.ID, dec("100"))
	assert.ErrorIs(t, err, service.ErrAccountBlocked)
	assert.True(t, h.balance(t, player.ID).Equal(dec("500")))
}

func TestEscrowService_Hold_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())

	_, err := h.escrow.Hold(ctx, "contest-1", 9999, dec("100"))
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
}

func TestEscrowService_Refund(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	p1 := h.newAccount(t)
	p2 := h.newAccount(t)

	_, err := h.escrow.Hold(ctx, "contest-1", p1.ID, dec("100"))
	require.NoError(t, err)
	_, err = h.escrow.Hold(ctx, "contest-1", p2.ID, dec("150"))
	require.NoError(t, err)

	refunded, err := h.escrow.Refund(ctx, "contest-1")
	require.NoError(t, err)
	assert.Equal(t, 2, refunded)

	assert.True(t, h.balance(t, p1.ID).Equal(dec("500")))
	assert.True(t, h.balance(t, p2.ID).Equal(dec("500")))
}

func TestEscrowService_Refund_RepeatIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	p1 := h.newAccount(t)

	_, err := h.escrow.Hold(ctx, "contest-1", p1.ID, dec("100"))
	require.NoError(t, err)

	refunded, err := h.escrow.Refund(ctx, "contest-1")
	require.NoError(t, err)
	assert.Equal(t, 1, refunded)

	// A second refund finds no held rows and credits nothing
	refunded, err = h.escrow.Refund(ctx, "contest-1")
	require.NoError(t, err)
	assert.Equal(t, 0, refunded)
	assert.True(t, h.balance(t, p1.ID).Equal(dec("500")))
}

func TestEscrowService_RefundAfterSettlementIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	p1 := h.newAccount(t)
	p2 := h.newAccount(t)

	_, err := h.escrow.Hold(ctx, "contest-1", p1.ID, dec("100"))
	require.NoError(t, err)
	_, err = h.escrow.Hold(ctx, "contest-1", p2.ID, dec("100"))
	require.NoError(t, err)

	_, err = h.settlement.Settle(ctx, "contest-1", p1.ID, p2.ID, dec("0.1"))
	require.NoError(t, err)

	before := h.balance(t, p1.ID)
	refunded, err := h.escrow.Refund(ctx, "contest-1")
	require.NoError(t, err)
	assert.Equal(t, 0, refunded)
	assert.True(t, h.balance(t, p1.ID).Equal(before))
}
