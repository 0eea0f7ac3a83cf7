package repository

import (
	"context"
	"fmt"

	"tavla/database"
	"tavla/models"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepositoryWithTx creates a new ledger entry repository with a transaction
func newLedgerEntryRepositoryWithTx(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record appends a double-entry ledger row
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (from_account_id, to_account_id, amount, fee_to_house, asset, reference_type, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.FromAccountID,
		entry.ToAccountID,
		entry.Amount,
		entry.FeeToHouse,
		entry.Asset,
		entry.ReferenceType,
		entry.ReferenceID,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}

// GetByReference returns entries for a reference type and id
func (r *LedgerEntryRepository) GetByReference(ctx context.Context, refType models.ReferenceType, refID string) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, from_account_id, to_account_id, amount, fee_to_house, asset, reference_type, reference_id, created_at
		FROM ledger_entries
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for %s %s: %w", refType, refID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.FromAccountID,
			&entry.ToAccountID,
			&entry.Amount,
			&entry.FeeToHouse,
			&entry.Asset,
			&entry.ReferenceType,
			&entry.ReferenceID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
