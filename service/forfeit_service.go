package service

import (
	"context"
	"fmt"

	"tavla/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type forfeitService struct {
	uowFactory UnitOfWorkFactory
	settlement SettlementService
}

// NewForfeitService creates a new disconnect/forfeit resolver
func NewForfeitService(uowFactory UnitOfWorkFactory, settlement SettlementService) ForfeitService {
	return &forfeitService{
		uowFactory: uowFactory,
		settlement: settlement,
	}
}

// ResolveDisconnect converts a disconnect timeout into a deterministic
// settlement: if the contest has exactly two held stakes and one
// belongs to the disconnected player, the remaining player wins through
// the normal settlement path. Any other escrow shape is not a staked
// two-party contest and the informational forfeit flow applies instead.
// The session collaborator fires this once per disconnect; settlement's
// escrow guard makes a duplicate call fail cleanly rather than pay
// twice.
func (s *forfeitService) ResolveDisconnect(ctx context.Context, contestID string, disconnectedID int64, rakeRate decimal.Decimal) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	holds, err := uow.EscrowRepository().GetByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow holds: %w", err)
	}

	var held []*models.EscrowHold
	for _, hold := range holds {
		if hold.Status == models.EscrowStatusHeld {
			held = append(held, hold)
		}
	}
	if err := uow.Rollback(); err != nil {
		return nil, fmt.Errorf("failed to release read transaction: %w", err)
	}

	if len(held) != 2 {
		return nil, fmt.Errorf("contest %s has %d held stakes: %w", contestID, len(held), ErrForfeitNotApplicable)
	}

	var winnerID int64
	var found bool
	for _, hold := range held {
		if hold.AccountID == disconnectedID {
			found = true
		} else {
			winnerID = hold.AccountID
		}
	}
	if !found {
		return nil, fmt.Errorf("participant %d did not stake contest %s: %w", disconnectedID, contestID, ErrForfeitNotApplicable)
	}

	log.WithFields(log.Fields{
		"contestID":      contestID,
		"disconnectedID": disconnectedID,
		"winnerID":       winnerID,
	}).Info("Resolving disconnect as forfeit settlement")

	return s.settlement.Settle(ctx, contestID, winnerID, disconnectedID, rakeRate)
}
