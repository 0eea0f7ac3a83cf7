package repository

import (
	"context"
	"fmt"

	"tavla/database"
	"tavla/models"
	"tavla/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by its id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, balance, oasis_balance, blocked, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Balance,
		&account.OasisBalance,
		&account.Blocked,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, initialBalance decimal.Decimal) (*models.Account, error) {
	query := `
		INSERT INTO accounts (balance, oasis_balance)
		VALUES ($1, 0)
		RETURNING id, balance, oasis_balance, blocked, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, initialBalance).Scan(
		&account.ID,
		&account.Balance,
		&account.OasisBalance,
		&account.Blocked,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

// Credit adds to an account's primary balance unconditionally
func (r *AccountRepository) Credit(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}

	return nil
}

// Debit subtracts from an account's primary balance only if the balance
// covers the amount. The conditional update is the sole concurrency
// guard; no balance is read and re-written from a stale value.
func (r *AccountRepository) Debit(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to debit account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		// Disambiguate a missing account from insufficient funds
		account, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
		}
		return fmt.Errorf("account %d has %s, need %s: %w", id, account.Balance, amount, service.ErrInsufficientFunds)
	}

	return nil
}

// CreditOasis adds to an account's oasis balance
func (r *AccountRepository) CreditOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET oasis_balance = oasis_balance + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to credit oasis for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}

	return nil
}

// DebitOasis subtracts from an account's oasis balance conditionally
func (r *AccountRepository) DebitOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET oasis_balance = oasis_balance - $1, updated_at = NOW()
		WHERE id = $2 AND oasis_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to debit oasis for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
		}
		return fmt.Errorf("account %d has %s oasis, need %s: %w", id, account.OasisBalance, amount, service.ErrInsufficientFunds)
	}

	return nil
}

// SetBlocked flips the administrative block flag
func (r *AccountRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	query := `
		UPDATE accounts
		SET blocked = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, blocked, id)
	if err != nil {
		return fmt.Errorf("failed to set block flag for account %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}

	return nil
}
