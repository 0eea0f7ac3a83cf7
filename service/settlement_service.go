package service

import (
	"context"
	"errors"
	"fmt"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory      UnitOfWorkFactory
	mint            MintService
	backing         BackingService
	winMintAmount   decimal.Decimal
	playerShareRate decimal.Decimal
}

// NewSettlementService creates a new settlement service. winMintAmount
// is the fixed oasis reward minted to each contest winner;
// playerShareRate is the winner's cut of backing payouts.
func NewSettlementService(uowFactory UnitOfWorkFactory, mint MintService, backing BackingService, winMintAmount, playerShareRate decimal.Decimal) SettlementService {
	return &settlementService{
		uowFactory:      uowFactory,
		mint:            mint,
		backing:         backing,
		winMintAmount:   winMintAmount,
		playerShareRate: playerShareRate,
	}
}

// Settle computes the fee-adjusted payout and commits it atomically
// with the escrow release. The rake rate is taken as a parameter so the
// value used for a given settlement is explicit and immune to config
// changes mid-flight. Reward-token minting and backing settlement run
// after commit as best-effort follow-ups.
func (s *settlementService) Settle(ctx context.Context, contestID string, winnerID, loserID int64, rakeRate decimal.Decimal) (*models.SettlementResult, error) {
	if winnerID == loserID {
		return nil, fmt.Errorf("winner and loser must differ")
	}
	if rakeRate.Sign() < 0 || rakeRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("rake rate must be in [0,1], got %s", rakeRate)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	holds, err := releaseEscrow(ctx, uow, contestID)
	if err != nil {
		return nil, err
	}

	// Both participants must have staked; anything else is a duplicate
	// or out-of-order request.
	staked := map[int64]bool{}
	pot := decimal.Zero
	for _, hold := range holds {
		staked[hold.AccountID] = true
		pot = pot.Add(hold.Amount)
	}
	if !staked[winnerID] || !staked[loserID] {
		return nil, fmt.Errorf("contest %s holds do not match participants %d/%d: %w", contestID, winnerID, loserID, ErrInvalidEscrowState)
	}

	fee := pot.Mul(rakeRate).Round(2)
	payout := pot.Sub(fee)

	winner, err := uow.AccountRepository().GetByID(ctx, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winner: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("winner account %d: %w", winnerID, ErrAccountNotFound)
	}

	if err := creditAccount(ctx, uow, winnerID, payout, models.TransactionTypeWin, contestID); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		FromAccountID: &loserID,
		ToAccountID:   winnerID,
		Amount:        payout,
		FeeToHouse:    fee,
		Asset:         models.AssetPrimary,
		ReferenceType: models.ReferenceTypeContest,
		ReferenceID:   contestID,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record settlement ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.ContestSettledEvent{
		ContestID: contestID,
		WinnerID:  winnerID,
		LoserID:   loserID,
		Pot:       pot,
		Fee:       fee,
		Payout:    payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	result := &models.SettlementResult{
		ContestID:        contestID,
		WinnerID:         winnerID,
		LoserID:          loserID,
		Pot:              pot,
		Fee:              fee,
		Payout:           payout,
		WinnerNewBalance: winner.Balance.Add(payout),
	}

	s.runFollowUps(ctx, result)

	return result, nil
}

// runFollowUps performs the post-commit enrichment: oasis mint for the
// winner and backing-bet settlement. Each runs in its own transaction
// with its own error handling; a failure here never unwinds the payout.
func (s *settlementService) runFollowUps(ctx context.Context, result *models.SettlementResult) {
	if s.winMintAmount.Sign() > 0 {
		newBalance, err := s.mint.Mint(ctx, result.WinnerID, s.winMintAmount, "contest win", result.ContestID)
		switch {
		case err == nil:
			minted := s.winMintAmount
			result.OasisMinted = &minted
			_ = newBalance
		case errors.Is(err, ErrDailyMintCapReached):
			result.MintNote = "daily mint cap reached"
			log.WithFields(log.Fields{
				"contestID": result.ContestID,
				"winnerID":  result.WinnerID,
			}).Info("Skipping win reward, daily mint cap reached")
		default:
			result.MintNote = "mint failed"
			log.WithFields(log.Fields{
				"contestID": result.ContestID,
				"winnerID":  result.WinnerID,
				"error":     err,
			}).Error("Failed to mint win reward")
		}
	}

	backing, err := s.backing.SettleContest(ctx, result.ContestID, result.WinnerID, s.playerShareRate)
	if err != nil {
		log.WithFields(log.Fields{
			"contestID": result.ContestID,
			"error":     err,
		}).Error("Failed to settle backing bets")
		return
	}
	result.BackingBets = backing.WonBets + backing.LostBets
}
