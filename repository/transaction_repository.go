package repository

import (
	"context"
	"fmt"

	"tavla/database"
	"tavla/models"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the TransactionRepository interface.
// Rows are append-only; there is no update or delete path.
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a transaction row
func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, amount, type, reference_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.AccountID,
		txn.Amount,
		txn.Type,
		txn.ReferenceID,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for account %d: %w", txn.AccountID, err)
	}

	return nil
}

// GetByAccount returns recent transactions for an account
func (r *TransactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, reference_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByReference returns transactions linked to a reference id
func (r *TransactionRepository) GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, reference_id, created_at
		FROM transactions
		WHERE reference_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for reference %s: %w", referenceID, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.Amount,
			&txn.Type,
			&txn.ReferenceID,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}
