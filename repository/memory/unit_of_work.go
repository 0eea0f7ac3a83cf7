package memory

import (
	"context"
	"fmt"

	"tavla/events"
	"tavla/service"
)

// unitOfWork implements service.UnitOfWork over the in-memory store.
// Begin acquires the store mutex and takes a snapshot; Rollback
// restores it. Units of work therefore execute one at a time.
type unitOfWork struct {
	store            *Store
	began            bool
	ctx              context.Context
	snap             *snapshot
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	transactionRepo  service.TransactionRepository
	ledgerRepo       service.LedgerEntryRepository
	escrowRepo       service.EscrowRepository
	backingBetRepo   service.BackingBetRepository
	mintBudgetRepo   service.MintBudgetRepository
	idempotencyRepo  service.IdempotencyRepository
}

// NewUnitOfWorkFactory creates a factory producing units of work over
// the given store
func NewUnitOfWorkFactory(store *Store, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		store:    store,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin locks the store and snapshots its state
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.began {
		return fmt.Errorf("transaction already started")
	}

	u.store.mu.Lock()
	u.began = true
	u.ctx = ctx
	u.snap = u.store.snapshot()

	u.accountRepo = &accountRepository{store: u.store}
	u.transactionRepo = &transactionRepository{store: u.store}
	u.ledgerRepo = &ledgerEntryRepository{store: u.store}
	u.escrowRepo = &escrowRepository{store: u.store}
	u.backingBetRepo = &backingBetRepository{store: u.store}
	u.mintBudgetRepo = &mintBudgetRepository{store: u.store}
	u.idempotencyRepo = &idempotencyRepository{store: u.store}

	return nil
}

// Commit keeps the mutations and releases the store
func (u *unitOfWork) Commit() error {
	if !u.began {
		return fmt.Errorf("no transaction to commit")
	}

	u.began = false
	u.snap = nil
	u.store.mu.Unlock()

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback restores the snapshot and releases the store
func (u *unitOfWork) Rollback() error {
	if !u.began {
		return nil // Nothing to rollback
	}

	u.store.restore(u.snap)
	u.began = false
	u.snap = nil
	u.store.mu.Unlock()

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// TransactionRepository returns the transaction repository for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// LedgerEntryRepository returns the ledger entry repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() service.LedgerEntryRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EscrowRepository returns the escrow repository for this unit of work
func (u *unitOfWork) EscrowRepository() service.EscrowRepository {
	if u.escrowRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.escrowRepo
}

// BackingBetRepository returns the backing bet repository for this unit of work
func (u *unitOfWork) BackingBetRepository() service.BackingBetRepository {
	if u.backingBetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.backingBetRepo
}

// MintBudgetRepository returns the mint budget repository for this unit of work
func (u *unitOfWork) MintBudgetRepository() service.MintBudgetRepository {
	if u.mintBudgetRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.mintBudgetRepo
}

// IdempotencyRepository returns the idempotency repository for this unit of work
func (u *unitOfWork) IdempotencyRepository() service.IdempotencyRepository {
	if u.idempotencyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.idempotencyRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
