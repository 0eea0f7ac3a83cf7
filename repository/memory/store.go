// Package memory provides a volatile, in-process implementation of the
// repository interfaces. It backs local development and tests when no
// database is configured. All state is lost on process exit.
package memory

import (
	"sync"
	"time"

	"tavla/models"
)

// Store holds all wallet state in process memory. A single mutex spans
// each unit of work, so units of work serialize completely. That is a
// stricter model than row-level locking but preserves every invariant
// the SQL store guarantees.
type Store struct {
	mu sync.Mutex

	accounts      map[int64]*models.Account
	nextAccountID int64

	transactions []*models.Transaction
	nextTxnID    int64

	ledger       []*models.LedgerEntry
	nextLedgerID int64

	escrows []*models.EscrowHold

	backingBets []*models.BackingBet
	nextBetID   int64

	mintBudgets map[string]*models.MintBudget

	idempotency map[string]*models.IdempotencyRecord
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		accounts:      make(map[int64]*models.Account),
		nextAccountID: 1,
		nextTxnID:     1,
		nextLedgerID:  1,
		nextBetID:     1,
		mintBudgets:   make(map[string]*models.MintBudget),
		idempotency:   make(map[string]*models.IdempotencyRecord),
	}
}

// snapshot captures the full store state so a rollback can restore it
type snapshot struct {
	accounts      map[int64]*models.Account
	nextAccountID int64
	transactions  []*models.Transaction
	nextTxnID     int64
	ledger        []*models.LedgerEntry
	nextLedgerID  int64
	escrows       []*models.EscrowHold
	backingBets   []*models.BackingBet
	nextBetID     int64
	mintBudgets   map[string]*models.MintBudget
	idempotency   map[string]*models.IdempotencyRecord
}

func (s *Store) snapshot() *snapshot {
	snap := &snapshot{
		accounts:      make(map[int64]*models.Account, len(s.accounts)),
		nextAccountID: s.nextAccountID,
		transactions:  make([]*models.Transaction, len(s.transactions)),
		nextTxnID:     s.nextTxnID,
		ledger:        make([]*models.LedgerEntry, len(s.ledger)),
		nextLedgerID:  s.nextLedgerID,
		escrows:       make([]*models.EscrowHold, len(s.escrows)),
		backingBets:   make([]*models.BackingBet, len(s.backingBets)),
		nextBetID:     s.nextBetID,
		mintBudgets:   make(map[string]*models.MintBudget, len(s.mintBudgets)),
		idempotency:   make(map[string]*models.IdempotencyRecord, len(s.idempotency)),
	}
	for id, a := range s.accounts {
		snap.accounts[id] = copyAccount(a)
	}
	for i, t := range s.transactions {
		snap.transactions[i] = copyTransaction(t)
	}
	for i, e := range s.ledger {
		snap.ledger[i] = copyLedgerEntry(e)
	}
	for i, h := range s.escrows {
		snap.escrows[i] = copyEscrowHold(h)
	}
	for i, b := range s.backingBets {
		snap.backingBets[i] = copyBackingBet(b)
	}
	for day, b := range s.mintBudgets {
		snap.mintBudgets[day] = copyMintBudget(b)
	}
	for key, r := range s.idempotency {
		snap.idempotency[key] = copyIdempotencyRecord(r)
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.accounts = snap.accounts
	s.nextAccountID = snap.nextAccountID
	s.transactions = snap.transactions
	s.nextTxnID = snap.nextTxnID
	s.ledger = snap.ledger
	s.nextLedgerID = snap.nextLedgerID
	s.escrows = snap.escrows
	s.backingBets = snap.backingBets
	s.nextBetID = snap.nextBetID
	s.mintBudgets = snap.mintBudgets
	s.idempotency = snap.idempotency
}

func copyAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	if t.ReferenceID != nil {
		ref := *t.ReferenceID
		c.ReferenceID = &ref
	}
	return &c
}

func copyLedgerEntry(e *models.LedgerEntry) *models.LedgerEntry {
	c := *e
	if e.FromAccountID != nil {
		from := *e.FromAccountID
		c.FromAccountID = &from
	}
	return &c
}

func copyEscrowHold(h *models.EscrowHold) *models.EscrowHold {
	c := *h
	if h.ReleasedAt != nil {
		at := *h.ReleasedAt
		c.ReleasedAt = &at
	}
	return &c
}

func copyBackingBet(b *models.BackingBet) *models.BackingBet {
	c := *b
	if b.PayoutAmount != nil {
		p := *b.PayoutAmount
		c.PayoutAmount = &p
	}
	if b.ResolvedAt != nil {
		at := *b.ResolvedAt
		c.ResolvedAt = &at
	}
	return &c
}

func copyMintBudget(b *models.MintBudget) *models.MintBudget {
	c := *b
	return &c
}

func copyIdempotencyRecord(r *models.IdempotencyRecord) *models.IdempotencyRecord {
	c := *r
	if r.Payload != nil {
		c.Payload = append([]byte(nil), r.Payload...)
	}
	return &c
}

func budgetKey(day time.Time) string {
	return day.UTC().Format("2006-01-02")
}
