package repository

import (
	"context"
	"fmt"

	"tavla/database"
	"tavla/models"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepository implements the IdempotencyRepository interface
type IdempotencyRepository struct {
	q queryable
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *database.DB) *IdempotencyRepository {
	return &IdempotencyRepository{q: db.Pool}
}

// newIdempotencyRepositoryWithTx creates a new idempotency repository with a transaction
func newIdempotencyRepositoryWithTx(tx queryable) *IdempotencyRepository {
	return &IdempotencyRepository{q: tx}
}

// Get retrieves a stored record by key
func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	query := `
		SELECT key, response_type, payload, created_at
		FROM idempotency_keys
		WHERE key = $1
	`

	var record models.IdempotencyRecord
	err := r.q.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.ResponseType,
		&record.Payload,
		&record.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency record %q: %w", key, err)
	}

	return &record, nil
}

// InsertIfAbsent stores a record unless the key already exists. The
// unique constraint makes the insert the atomic arbiter between
// concurrent requests carrying the same key.
func (r *IdempotencyRepository) InsertIfAbsent(ctx context.Context, record *models.IdempotencyRecord) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, response_type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, record.Key, record.ResponseType, record.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to insert idempotency record %q: %w", record.Key, err)
	}

	return result.RowsAffected() == 1, nil
}
