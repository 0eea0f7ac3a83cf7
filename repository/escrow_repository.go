package repository

import (
	"context"
	"fmt"
	"time"

	"tavla/database"
	"tavla/models"

	"github.com/jackc/pgx/v5"
)

// EscrowRepository implements the EscrowRepository interface
type EscrowRepository struct {
	q queryable
}

// NewEscrowRepository creates a new escrow repository
func NewEscrowRepository(db *database.DB) *EscrowRepository {
	return &EscrowRepository{q: db.Pool}
}

// newEscrowRepositoryWithTx creates a new escrow repository with a transaction
func newEscrowRepositoryWithTx(tx queryable) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

// Create inserts a new hold with status held
func (r *EscrowRepository) Create(ctx context.Context, hold *models.EscrowHold) error {
	query := `
		INSERT INTO escrow_holds (id, contest_id, account_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		hold.ID,
		hold.ContestID,
		hold.AccountID,
		hold.Amount,
		models.EscrowStatusHeld,
	).Scan(&hold.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create escrow hold for contest %s: %w", hold.ContestID, err)
	}
	hold.Status = models.EscrowStatusHeld

	return nil
}

// GetByContest returns all holds for a contest regardless of status
func (r *EscrowRepository) GetByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	query := `
		SELECT id, contest_id, account_id, amount, status, created_at, released_at
		FROM escrow_holds
		WHERE contest_id = $1
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow holds for contest %s: %w", contestID, err)
	}
	defer rows.Close()

	return scanEscrowHolds(rows)
}

// LockHeldByContest locks the contest's held rows with SELECT FOR
// UPDATE before returning them. Concurrent settlement attempts against
// the same contest serialize here: the loser re-reads after the winner
// commits and sees zero held rows.
func (r *EscrowRepository) LockHeldByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	query := `
		SELECT id, contest_id, account_id, amount, status, created_at, released_at
		FROM escrow_holds
		WHERE contest_id = $1 AND status = $2
		ORDER BY created_at
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, contestID, models.EscrowStatusHeld)
	if err != nil {
		return nil, fmt.Errorf("failed to lock escrow holds for contest %s: %w", contestID, err)
	}
	defer rows.Close()

	return scanEscrowHolds(rows)
}

// MarkReleased transitions the contest's held rows to released
func (r *EscrowRepository) MarkReleased(ctx context.Context, contestID string, at time.Time) (int, error) {
	return r.transition(ctx, contestID, models.EscrowStatusReleased, at)
}

// MarkRefunded transitions the contest's held rows to refunded
func (r *EscrowRepository) MarkRefunded(ctx context.Context, contestID string, at time.Time) (int, error) {
	return r.transition(ctx, contestID, models.EscrowStatusRefunded, at)
}

func (r *EscrowRepository) transition(ctx context.Context, contestID string, to models.EscrowStatus, at time.Time) (int, error) {
	query := `
		UPDATE escrow_holds
		SET status = $1, released_at = $2
		WHERE contest_id = $3 AND status = $4
	`

	result, err := r.q.Exec(ctx, query, to, at, contestID, models.EscrowStatusHeld)
	if err != nil {
		return 0, fmt.Errorf("failed to mark holds %s for contest %s: %w", to, contestID, err)
	}

	return int(result.RowsAffected()), nil
}

func scanEscrowHolds(rows pgx.Rows) ([]*models.EscrowHold, error) {
	var holds []*models.EscrowHold
	for rows.Next() {
		var hold models.EscrowHold
		err := rows.Scan(
			&hold.ID,
			&hold.ContestID,
			&hold.AccountID,
			&hold.Amount,
			&hold.Status,
			&hold.CreatedAt,
			&hold.ReleasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow hold: %w", err)
		}
		holds = append(holds, &hold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escrow holds: %w", err)
	}

	return holds, nil
}
