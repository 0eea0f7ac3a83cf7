package repository

import (
	"context"
	"fmt"
	"time"

	"tavla/database"
	"tavla/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// BackingBetRepository implements the BackingBetRepository interface
type BackingBetRepository struct {
	q queryable
}

// NewBackingBetRepository creates a new backing bet repository
func NewBackingBetRepository(db *database.DB) *BackingBetRepository {
	return &BackingBetRepository{q: db.Pool}
}

// newBackingBetRepositoryWithTx creates a new backing bet repository with a transaction
func newBackingBetRepositoryWithTx(tx queryable) *BackingBetRepository {
	return &BackingBetRepository{q: tx}
}

// Create inserts a new pending bet
func (r *BackingBetRepository) Create(ctx context.Context, bet *models.BackingBet) error {
	query := `
		INSERT INTO backing_bets (contest_id, backed_player_id, supporter_id, amount, odds, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.ContestID,
		bet.BackedPlayerID,
		bet.SupporterID,
		bet.Amount,
		bet.Odds,
		models.BackingBetStatusPending,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create backing bet for contest %s: %w", bet.ContestID, err)
	}
	bet.Status = models.BackingBetStatusPending

	return nil
}

// GetByID retrieves a bet by id
func (r *BackingBetRepository) GetByID(ctx context.Context, id int64) (*models.BackingBet, error) {
	query := `
		SELECT id, contest_id, backed_player_id, supporter_id, amount, odds, status, payout_amount, created_at, resolved_at
		FROM backing_bets
		WHERE id = $1
	`

	var bet models.BackingBet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&bet.ID,
		&bet.ContestID,
		&bet.BackedPlayerID,
		&bet.SupporterID,
		&bet.Amount,
		&bet.Odds,
		&bet.Status,
		&bet.PayoutAmount,
		&bet.CreatedAt,
		&bet.ResolvedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backing bet %d: %w", id, err)
	}

	return &bet, nil
}

// LockPendingByContest locks and returns the contest's pending bets
func (r *BackingBetRepository) LockPendingByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	query := `
		SELECT id, contest_id, backed_player_id, supporter_id, amount, odds, status, payout_amount, created_at, resolved_at
		FROM backing_bets
		WHERE contest_id = $1 AND status = $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, contestID, models.BackingBetStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending bets for contest %s: %w", contestID, err)
	}
	defer rows.Close()

	return scanBackingBets(rows)
}

// LockPending locks a single pending bet by id and supporter
func (r *BackingBetRepository) LockPending(ctx context.Context, id int64, supporterID int64) (*models.BackingBet, error) {
	query := `
		SELECT id, contest_id, backed_player_id, supporter_id, amount, odds, status, payout_amount, created_at, resolved_at
		FROM backing_bets
		WHERE id = $1 AND supporter_id = $2 AND status = $3
		FOR UPDATE
	`

	var bet models.BackingBet
	err := r.q.QueryRow(ctx, query, id, supporterID, models.BackingBetStatusPending).Scan(
		&bet.ID,
		&bet.ContestID,
		&bet.BackedPlayerID,
		&bet.SupporterID,
		&bet.Amount,
		&bet.Odds,
		&bet.Status,
		&bet.PayoutAmount,
		&bet.CreatedAt,
		&bet.ResolvedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock backing bet %d: %w", id, err)
	}

	return &bet, nil
}

// Resolve transitions a bet to a terminal status with its payout
func (r *BackingBetRepository) Resolve(ctx context.Context, id int64, status models.BackingBetStatus, payout *decimal.Decimal, at time.Time) error {
	query := `
		UPDATE backing_bets
		SET status = $1, payout_amount = $2, resolved_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.Exec(ctx, query, status, payout, at, id, models.BackingBetStatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve backing bet %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("backing bet %d is not pending", id)
	}

	return nil
}

// GetByContest returns all bets on a contest
func (r *BackingBetRepository) GetByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	query := `
		SELECT id, contest_id, backed_player_id, supporter_id, amount, odds, status, payout_amount, created_at, resolved_at
		FROM backing_bets
		WHERE contest_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backing bets for contest %s: %w", contestID, err)
	}
	defer rows.Close()

	return scanBackingBets(rows)
}

func scanBackingBets(rows pgx.Rows) ([]*models.BackingBet, error) {
	var bets []*models.BackingBet
	for rows.Next() {
		var bet models.BackingBet
		err := rows.Scan(
			&bet.ID,
			&bet.ContestID,
			&bet.BackedPlayerID,
			&bet.SupporterID,
			&bet.Amount,
			&bet.Odds,
			&bet.Status,
			&bet.PayoutAmount,
			&bet.CreatedAt,
			&bet.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan backing bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backing bets: %w", err)
	}

	return bets, nil
}
