package service_test

import (
	"context"
	"testing"

	"tavla/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackingService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)
	supporter := h.newAccount(t)

	bet, err := h.backing.PlaceBet(ctx, "contest-1", supporter.ID, player.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	assert.NotZero(t, bet.ID)
	assert.True(t, bet.Amount.Equal(dec("50")))
	assert.True(t, h.balance(t, supporter.ID).Equal(dec("450")))
}

func TestBackingService_PlaceBet_SelfBackingRejected(t *testing.T) {
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)

	_, err := h.backing.PlaceBet(context.Background(), "contest-1", player.ID, player.ID, dec("50"), dec("2"))
	assert.Error(t, err)
}

func TestBackingService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)
	supporter := h.newAccount(t)

	_, err := h.backing.PlaceBet(ctx, "contest-1", supporter.ID, player.ID, dec("600"), dec("2"))
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	assert.True(t, h.balance(t, supporter.ID).Equal(dec("500")))
}

func TestBackingService_SettleContest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	winner := h.newAccount(t)
	loser := h.newAccount(t)
	backer1 := h.newAccount(t)
	backer2 := h.newAccount(t)

	_, err := h.backing.PlaceBet(ctx, "contest-1", backer1.ID, winner.ID, dec("50"), dec("2"))
	require.NoError(t, err)
	_, err = h.backing.PlaceBet(ctx, "contest-1", backer2.ID, loser.ID, dec("40"), dec("2"))
	require.NoError(t, err)

	result, err := h.backing.SettleContest(ctx, "contest-1", winner.ID, dec("0.15"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.WonBets)
	assert.Equal(t, 1, result.LostBets)
	assert.True(t, result.PlayerShare.Equal(dec("15")))
	assert.True(t, result.SupporterPaid.Equal(dec("85")))

	// Winning backer: 500 - 50 + 85
	assert.True(t, h.balance(t, backer1.ID).Equal(dec("535")))
	// Losing backer keeps the loss
	assert.True(t, h.balance(t, backer2.ID).Equal(dec("460")))
	// Backed winner receives the player share
	assert.True(t, h.balance(t, winner.ID).Equal(dec("515")))
}

func TestBackingService_SettleContest_RepeatIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	winner := h.newAccount(t)
	backer := h.newAccount(t)

	_, err := h.backing.PlaceBet(ctx, "contest-1", backer.ID, winner.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	_, err = h.backing.SettleContest(ctx, "contest-1", winner.ID, dec("0.15"))
	require.NoError(t, err)

	after := h.balance(t, backer.ID)

	// All bets already resolved; nothing pays twice
	result, err := h.backing.SettleContest(ctx, "contest-1", winner.ID, dec("0.15"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.WonBets)
	assert.Equal(t, 0, result.LostBets)
	assert.True(t, h.balance(t, backer.ID).Equal(after))
}

func TestBackingService_SettleContest_ShareClamped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	winner := h.newAccount(t)
	backer := h.newAccount(t)

	_, err := h.backing.PlaceBet(ctx, "contest-1", backer.ID, winner.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	// A share above the cap clamps to 50 percent
	result, err := h.backing.SettleContest(ctx, "contest-1", winner.ID, dec("0.9"))
	require.NoError(t, err)
	assert.True(t, result.PlayerShare.Equal(dec("50")))
	assert.True(t, result.SupporterPaid.Equal(dec("50")))
}

func TestBackingService_Cancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)
	supporter := h.newAccount(t)

	bet, err := h.backing.PlaceBet(ctx, "contest-1", supporter.ID, player.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	require.NoError(t, h.backing.Cancel(ctx, bet.ID, supporter.ID))
	assert.True(t, h.balance(t, supporter.ID).Equal(dec("500")))

	// Already refunded
	err = h.backing.Cancel(ctx, bet.ID, supporter.ID)
	assert.ErrorIs(t, err, service.ErrAlreadySettled)
}

func TestBackingService_Cancel_AfterSettlement(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	winner := h.newAccount(t)
	supporter := h.newAccount(t)

	bet, err := h.backing.PlaceBet(ctx, "contest-1", supporter.ID, winner.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	_, err = h.backing.SettleContest(ctx, "contest-1", winner.ID, dec("0.15"))
	require.NoError(t, err)

	err = h.backing.Cancel(ctx, bet.ID, supporter.ID)
	assert.ErrorIs(t, err, service.ErrAlreadySettled)
}

func TestBackingService_Cancel_WrongSupporter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(defaultHarnessConfig())
	player := h.newAccount(t)
	supporter := h.newAccount(t)
	stranger := h.newAccount(t)

	bet, err := h.backing.PlaceBet(ctx, "contest-1", supporter.ID, player.ID, dec("50"), dec("2"))
	require.NoError(t, err)

	err = h.backing.Cancel(ctx, bet.ID, stranger.ID)
	assert.ErrorIs(t, err, service.ErrBetNotFound)

	err = h.backing.Cancel(ctx, 9999, supporter.ID)
	assert.ErrorIs(t, err, service.ErrBetNotFound)
}
