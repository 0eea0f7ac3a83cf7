package repository

import (
	"context"
	"fmt"
	"time"

	"tavla/database"
	"tavla/models"

	"github.com/shopspring/decimal"
)

// MintBudgetRepository implements the MintBudgetRepository interface
type MintBudgetRepository struct {
	q queryable
}

// NewMintBudgetRepository creates a new mint budget repository
func NewMintBudgetRepository(db *database.DB) *MintBudgetRepository {
	return &MintBudgetRepository{q: db.Pool}
}

// newMintBudgetRepositoryWithTx creates a new mint budget repository with a transaction
func newMintBudgetRepositoryWithTx(tx queryable) *MintBudgetRepository {
	return &MintBudgetRepository{q: tx}
}

// LockDay ensures the budget row for the given UTC day exists and locks
// it for the rest of the transaction. Concurrent mints for the same day
// serialize on this row, so the cap check never races.
func (r *MintBudgetRepository) LockDay(ctx context.Context, day time.Time, cap decimal.Decimal) (*models.MintBudget, error) {
	insert := `
		INSERT INTO mint_daily_budget (day, minted, cap)
		VALUES ($1, 0, $2)
		ON CONFLICT (day) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, day, cap); err != nil {
		return nil, fmt.Errorf("failed to ensure mint budget for %s: %w", day.Format("2006-01-02"), err)
	}

	query := `
		SELECT day, minted, cap
		FROM mint_daily_budget
		WHERE day = $1
		FOR UPDATE
	`

	var budget models.MintBudget
	err := r.q.QueryRow(ctx, query, day).Scan(
		&budget.Day,
		&budget.Minted,
		&budget.Cap,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock mint budget for %s: %w", day.Format("2006-01-02"), err)
	}

	return &budget, nil
}

// AddMinted increases the day's minted total
func (r *MintBudgetRepository) AddMinted(ctx context.Context, day time.Time, amount decimal.Decimal) error {
	query := `
		UPDATE mint_daily_budget
		SET minted = minted + $1
		WHERE day = $2
	`

	result, err := r.q.Exec(ctx, query, amount, day)
	if err != nil {
		return fmt.Errorf("failed to update mint budget: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mint budget row for %s not found", day.Format("2006-01-02"))
	}

	return nil
}
