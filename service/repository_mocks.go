package service

import (
	"context"
	"time"

	"tavla/events"
	"tavla/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, initialBalance decimal.Decimal) (*models.Account, error) {
	args := m.Called(ctx, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) Debit(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) CreditOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DebitOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	args := m.Called(ctx, id, blocked)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByReference(ctx context.Context, refType models.ReferenceType, refID string) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, refType, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockEscrowRepository is a mock implementation of EscrowRepository
type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) Create(ctx context.Context, hold *models.EscrowHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockEscrowRepository) GetByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EscrowHold), args.Error(1)
}

func (m *MockEscrowRepository) LockHeldByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EscrowHold), args.Error(1)
}

func (m *MockEscrowRepository) MarkReleased(ctx context.Context, contestID string, at time.Time) (int, error) {
	args := m.Called(ctx, contestID, at)
	return args.Int(0), args.Error(1)
}

func (m *MockEscrowRepository) MarkRefunded(ctx context.Context, contestID string, at time.Time) (int, error) {
	args := m.Called(ctx, contestID, at)
	return args.Int(0), args.Error(1)
}

// MockBackingBetRepository is a mock implementation of BackingBetRepository
type MockBackingBetRepository struct {
	mock.Mock
}

func (m *MockBackingBetRepository) Create(ctx context.Context, bet *models.BackingBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBackingBetRepository) GetByID(ctx context.Context, id int64) (*models.BackingBet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BackingBet), args.Error(1)
}

func (m *MockBackingBetRepository) LockPendingByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BackingBet), args.Error(1)
}

func (m *MockBackingBetRepository) LockPending(ctx context.Context, id int64, supporterID int64) (*models.BackingBet, error) {
	args := m.Called(ctx, id, supporterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BackingBet), args.Error(1)
}

func (m *MockBackingBetRepository) Resolve(ctx context.Context, id int64, status models.BackingBetStatus, payout *decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, id, status, payout, at)
	return args.Error(0)
}

func (m *MockBackingBetRepository) GetByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BackingBet), args.Error(1)
}

// MockMintBudgetRepository is a mock implementation of MintBudgetRepository
type MockMintBudgetRepository struct {
	mock.Mock
}

func (m *MockMintBudgetRepository) LockDay(ctx context.Context, day time.Time, cap decimal.Decimal) (*models.MintBudget, error) {
	args := m.Called(ctx, day, cap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MintBudget), args.Error(1)
}

func (m *MockMintBudgetRepository) AddMinted(ctx context.Context, day time.Time, amount decimal.Decimal) error {
	args := m.Called(ctx, day, amount)
	return args.Error(0)
}

// MockIdempotencyRepository is a mock implementation of IdempotencyRepository
type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IdempotencyRecord), args.Error(1)
}

func (m *MockIdempotencyRepository) InsertIfAbsent(ctx context.Context, record *models.IdempotencyRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories
// are plain fields set through SetRepositories; lifecycle methods go
// through the mock expectations.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	ledgerRepo      LedgerEntryRepository
	escrowRepo      EscrowRepository
	backingBetRepo  BackingBetRepository
	mintBudgetRepo  MintBudgetRepository
	idempotencyRepo IdempotencyRepository
	eventPublisher  EventPublisher
}

// SetRepositories wires the mock repositories this unit of work hands
// out. Nil entries are fine for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	transactions TransactionRepository,
	ledger LedgerEntryRepository,
	escrow EscrowRepository,
	backingBets BackingBetRepository,
	mintBudget MintBudgetRepository,
	idempotency IdempotencyRepository,
) {
	m.accountRepo = accounts
	m.transactionRepo = transactions
	m.ledgerRepo = ledger
	m.escrowRepo = escrow
	m.backingBetRepo = backingBets
	m.mintBudgetRepo = mintBudget
	m.idempotencyRepo = idempotency
}

// SetEventPublisher overrides the default no-op publisher
func (m *MockUnitOfWork) SetEventPublisher(publisher EventPublisher) {
	m.eventPublisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) EscrowRepository() EscrowRepository {
	return m.escrowRepo
}

func (m *MockUnitOfWork) BackingBetRepository() BackingBetRepository {
	return m.backingBetRepo
}

func (m *MockUnitOfWork) MintBudgetRepository() MintBudgetRepository {
	return m.mintBudgetRepo
}

func (m *MockUnitOfWork) IdempotencyRepository() IdempotencyRepository {
	return m.idempotencyRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventPublisher == nil {
		return noopPublisher{}
	}
	return m.eventPublisher
}

type noopPublisher struct{}

func (noopPublisher) Publish(event events.Event) {}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
