package service

import (
	"context"
	"time"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for wallet account data access
type AccountRepository interface {
	// GetByID retrieves an account by id, or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, initialBalance decimal.Decimal) (*models.Account, error)

	// Credit adds to an account's primary balance unconditionally
	Credit(ctx context.Context, id int64, amount decimal.Decimal) error

	// Debit subtracts from an account's primary balance, failing with
	// ErrInsufficientFunds if the balance cannot cover the amount
	Debit(ctx context.Context, id int64, amount decimal.Decimal) error

	// CreditOasis adds to an account's oasis reward-token balance
	CreditOasis(ctx context.Context, id int64, amount decimal.Decimal) error

	// DebitOasis subtracts from an account's oasis balance conditionally
	DebitOasis(ctx context.Context, id int64, amount decimal.Decimal) error

	// SetBlocked flips the administrative block flag
	SetBlocked(ctx context.Context, id int64, blocked bool) error
}

// TransactionRepository defines the interface for the append-only
// transaction audit trail
type TransactionRepository interface {
	// Record appends a transaction row
	Record(ctx context.Context, txn *models.Transaction) error

	// GetByAccount returns recent transactions for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error)

	// GetByReference returns transactions linked to a reference id
	GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error)
}

// LedgerEntryRepository defines the interface for double-entry records
type LedgerEntryRepository interface {
	// Record appends a ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByReference returns entries for a reference type and id
	GetByReference(ctx context.Context, refType models.ReferenceType, refID string) ([]*models.LedgerEntry, error)
}

// EscrowRepository defines the interface for escrow hold data access
type EscrowRepository interface {
	// Create inserts a new hold with status held
	Create(ctx context.Context, hold *models.EscrowHold) error

	// GetByContest returns all holds for a contest regardless of status
	GetByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error)

	// LockHeldByContest locks and returns the contest's held rows.
	// Serializes concurrent settlement attempts for the same contest.
	LockHeldByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error)

	// MarkReleased transitions the contest's held rows to released and
	// returns the number of rows affected
	MarkReleased(ctx context.Context, contestID string, at time.Time) (int, error)

	// MarkRefunded transitions the contest's held rows to refunded and
	// returns the number of rows affected
	MarkRefunded(ctx context.Context, contestID string, at time.Time) (int, error)
}

// BackingBetRepository defines the interface for backing bet data access
type BackingBetRepository interface {
	// Create inserts a new pending bet
	Create(ctx context.Context, bet *models.BackingBet) error

	// GetByID retrieves a bet by id, or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.BackingBet, error)

	// LockPendingByContest locks and returns the contest's pending bets
	LockPendingByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error)

	// LockPending locks a single pending bet by id and supporter, or
	// nil if no such pending bet exists
	LockPending(ctx context.Context, id int64, supporterID int64) (*models.BackingBet, error)

	// Resolve transitions a bet to a terminal status with its payout
	Resolve(ctx context.Context, id int64, status models.BackingBetStatus, payout *decimal.Decimal, at time.Time) error

	// GetByContest returns all bets on a contest
	GetByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error)
}

// MintBudgetRepository defines the interface for the daily oasis mint budget
type MintBudgetRepository interface {
	// LockDay ensures the budget row for the given UTC day exists with
	// the supplied cap, locks it, and returns it
	LockDay(ctx context.Context, day time.Time, cap decimal.Decimal) (*models.MintBudget, error)

	// AddMinted increases the day's minted total
	AddMinted(ctx context.Context, day time.Time, amount decimal.Decimal) error
}

// IdempotencyRepository defines the interface for stored endpoint responses
type IdempotencyRepository interface {
	// Get retrieves a stored record by key, or nil if absent
	Get(ctx context.Context, key string) (*models.IdempotencyRecord, error)

	// InsertIfAbsent stores a record unless the key already exists.
	// Returns false when another request won the race.
	InsertIfAbsent(ctx context.Context, record *models.IdempotencyRecord) (bool, error)
}

// WalletService defines account-level wallet operations
type WalletService interface {
	// CreateAccount creates a wallet account with the starting balance
	CreateAccount(ctx context.Context) (*models.Account, error)

	// GetAccount retrieves an account
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// GetTransactions returns recent transactions for an account,
	// newest first
	GetTransactions(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error)

	// Purchase credits purchased points to an account
	Purchase(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) (*models.Account, error)

	// Transfer moves points between two accounts
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error

	// ReferralBonus credits a referral reward
	ReferralBonus(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) error

	// SpendOasis debits oasis tokens for an in-platform purchase
	SpendOasis(ctx context.Context, accountID int64, amount decimal.Decimal, referenceID string) error

	// SetBlocked flips the administrative block flag
	SetBlocked(ctx context.Context, accountID int64, blocked bool) error
}

// EscrowService moves stakes in and out of contest escrow
type EscrowService interface {
	// Hold debits the stake and creates a held escrow row, atomically
	Hold(ctx context.Context, contestID string, accountID int64, amount decimal.Decimal) (string, error)

	// Refund returns every held stake of a cancelled contest. A contest
	// with no held rows is a no-op returning zero.
	Refund(ctx context.Context, contestID string) (int, error)
}

// SettlementService settles contests with funds in escrow
type SettlementService interface {
	// Settle releases the contest's escrow, credits the fee-adjusted
	// payout to the winner, and runs best-effort follow-ups (oasis
	// mint, backing settlement) after commit. The rake rate is fixed
	// for the duration of the call.
	Settle(ctx context.Context, contestID string, winnerID, loserID int64, rakeRate decimal.Decimal) (*models.SettlementResult, error)
}

// BackingService accepts and settles third-party backing bets
type BackingService interface {
	// PlaceBet stakes a supporter's wager on a contest participant
	PlaceBet(ctx context.Context, contestID string, supporterID, backedPlayerID int64, amount, odds decimal.Decimal) (*models.BackingBet, error)

	// SettleContest resolves every pending bet on the contest in one
	// transaction. Repeat calls are no-ops.
	SettleContest(ctx context.Context, contestID string, winnerID int64, playerShareRate decimal.Decimal) (*models.BackingSettlementResult, error)

	// Cancel refunds a still-pending bet
	Cancel(ctx context.Context, betID int64, supporterID int64) error
}

// MintService mints oasis reward tokens under the daily cap
type MintService interface {
	// Mint credits oasis tokens to an account, enforcing the daily
	// budget. Returns the account's new oasis balance.
	Mint(ctx context.Context, accountID int64, amount decimal.Decimal, reason string, referenceID string) (decimal.Decimal, error)
}

// ForfeitService converts disconnect timeouts into settlements
type ForfeitService interface {
	// ResolveDisconnect declares the remaining participant winner of a
	// staked two-party contest. Returns ErrForfeitNotApplicable when
	// the contest has no two-party escrow to settle.
	ResolveDisconnect(ctx context.Context, contestID string, disconnectedID int64, rakeRate decimal.Decimal) (*models.SettlementResult, error)
}

// GuardedOp produces the response to store for an idempotency key. A
// non-nil error means infrastructure failure: nothing is stored and the
// caller may retry.
type GuardedOp func(ctx context.Context) (responseType string, payload any, err error)

// IdempotencyGuard deduplicates client-retried financial operations
type IdempotencyGuard interface {
	// Execute runs op unless the key has a stored response, in which
	// case the stored response is returned verbatim and op is skipped.
	// The returned bool reports whether the response was replayed.
	Execute(ctx context.Context, key string, op GuardedOp) (*models.IdempotencyRecord, bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	LedgerEntryRepository() LedgerEntryRepository
	EscrowRepository() EscrowRepository
	BackingBetRepository() BackingBetRepository
	MintBudgetRepository() MintBudgetRepository
	IdempotencyRepository() IdempotencyRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a new UnitOfWork
	Create() UnitOfWork
}
