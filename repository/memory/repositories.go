package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tavla/models"
	"tavla/service"

	"github.com/shopspring/decimal"
)

// accountRepository implements service.AccountRepository over the store.
// The unit of work holds the store mutex for the repository's lifetime.
type accountRepository struct {
	store *Store
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (r *accountRepository) Create(ctx context.Context, initialBalance decimal.Decimal) (*models.Account, error) {
	now := time.Now().UTC()
	account := &models.Account{
		ID:           r.store.nextAccountID,
		Balance:      initialBalance,
		OasisBalance: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.store.nextAccountID++
	r.store.accounts[account.ID] = account
	return copyAccount(account), nil
}

func (r *accountRepository) Credit(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	account, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}
	account.Balance = account.Balance.Add(amount)
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *accountRepository) Debit(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	account, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}
	if account.Balance.LessThan(amount) {
		return fmt.Errorf("account %d has %s, need %s: %w", id, account.Balance, amount, service.ErrInsufficientFunds)
	}
	account.Balance = account.Balance.Sub(amount)
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *accountRepository) CreditOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	account, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}
	account.OasisBalance = account.OasisBalance.Add(amount)
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *accountRepository) DebitOasis(ctx context.Context, id int64, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	account, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}
	if account.OasisBalance.LessThan(amount) {
		return fmt.Errorf("account %d has %s oasis, need %s: %w", id, account.OasisBalance, amount, service.ErrInsufficientFunds)
	}
	account.OasisBalance = account.OasisBalance.Sub(amount)
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *accountRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	account, ok := r.store.accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, service.ErrAccountNotFound)
	}
	account.Blocked = blocked
	account.UpdatedAt = time.Now().UTC()
	return nil
}

type transactionRepository struct {
	store *Store
}

func (r *transactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	txn.ID = r.store.nextTxnID
	r.store.nextTxnID++
	txn.CreatedAt = time.Now().UTC()
	r.store.transactions = append(r.store.transactions, copyTransaction(txn))
	return nil
}

func (r *transactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range r.store.transactions {
		if t.AccountID == accountID {
			result = append(result, copyTransaction(t))
		}
	}
	// Newest first, matching the SQL store's ordering
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range r.store.transactions {
		if t.ReferenceID != nil && *t.ReferenceID == referenceID {
			result = append(result, copyTransaction(t))
		}
	}
	return result, nil
}

type ledgerEntryRepository struct {
	store *Store
}

func (r *ledgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	entry.ID = r.store.nextLedgerID
	r.store.nextLedgerID++
	entry.CreatedAt = time.Now().UTC()
	r.store.ledger = append(r.store.ledger, copyLedgerEntry(entry))
	return nil
}

func (r *ledgerEntryRepository) GetByReference(ctx context.Context, refType models.ReferenceType, refID string) ([]*models.LedgerEntry, error) {
	var result []*models.LedgerEntry
	for _, e := range r.store.ledger {
		if e.ReferenceType == refType && e.ReferenceID == refID {
			result = append(result, copyLedgerEntry(e))
		}
	}
	return result, nil
}

type escrowRepository struct {
	store *Store
}

func (r *escrowRepository) Create(ctx context.Context, hold *models.EscrowHold) error {
	hold.Status = models.EscrowStatusHeld
	hold.CreatedAt = time.Now().UTC()
	r.store.escrows = append(r.store.escrows, copyEscrowHold(hold))
	return nil
}

func (r *escrowRepository) GetByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	var result []*models.EscrowHold
	for _, h := range r.store.escrows {
		if h.ContestID == contestID {
			result = append(result, copyEscrowHold(h))
		}
	}
	return result, nil
}

func (r *escrowRepository) LockHeldByContest(ctx context.Context, contestID string) ([]*models.EscrowHold, error) {
	var result []*models.EscrowHold
	for _, h := range r.store.escrows {
		if h.ContestID == contestID && h.Status == models.EscrowStatusHeld {
			result = append(result, copyEscrowHold(h))
		}
	}
	return result, nil
}

func (r *escrowRepository) MarkReleased(ctx context.Context, contestID string, at time.Time) (int, error) {
	return r.transition(contestID, models.EscrowStatusReleased, at), nil
}

func (r *escrowRepository) MarkRefunded(ctx context.Context, contestID string, at time.Time) (int, error) {
	return r.transition(contestID, models.EscrowStatusRefunded, at), nil
}

func (r *escrowRepository) transition(contestID string, to models.EscrowStatus, at time.Time) int {
	affected := 0
	for _, h := range r.store.escrows {
		if h.ContestID == contestID && h.Status == models.EscrowStatusHeld {
			h.Status = to
			released := at
			h.ReleasedAt = &released
			affected++
		}
	}
	return affected
}

type backingBetRepository struct {
	store *Store
}

func (r *backingBetRepository) Create(ctx context.Context, bet *models.BackingBet) error {
	bet.ID = r.store.nextBetID
	r.store.nextBetID++
	bet.Status = models.BackingBetStatusPending
	bet.CreatedAt = time.Now().UTC()
	r.store.backingBets = append(r.store.backingBets, copyBackingBet(bet))
	return nil
}

func (r *backingBetRepository) GetByID(ctx context.Context, id int64) (*models.BackingBet, error) {
	for _, b := range r.store.backingBets {
		if b.ID == id {
			return copyBackingBet(b), nil
		}
	}
	return nil, nil
}

func (r *backingBetRepository) LockPendingByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	var result []*models.BackingBet
	for _, b := range r.store.backingBets {
		if b.ContestID == contestID && b.Status == models.BackingBetStatusPending {
			result = append(result, copyBackingBet(b))
		}
	}
	return result, nil
}

func (r *backingBetRepository) LockPending(ctx context.Context, id int64, supporterID int64) (*models.BackingBet, error) {
	for _, b := range r.store.backingBets {
		if b.ID == id && b.SupporterID == supporterID && b.Status == models.BackingBetStatusPending {
			return copyBackingBet(b), nil
		}
	}
	return nil, nil
}

func (r *backingBetRepository) Resolve(ctx context.Context, id int64, status models.BackingBetStatus, payout *decimal.Decimal, at time.Time) error {
	for _, b := range r.store.backingBets {
		if b.ID == id && b.Status == models.BackingBetStatusPending {
			b.Status = status
			if payout != nil {
				p := *payout
				b.PayoutAmount = &p
			}
			resolved := at
			b.ResolvedAt = &resolved
			return nil
		}
	}
	return fmt.Errorf("backing bet %d is not pending", id)
}

func (r *backingBetRepository) GetByContest(ctx context.Context, contestID string) ([]*models.BackingBet, error) {
	var result []*models.BackingBet
	for _, b := range r.store.backingBets {
		if b.ContestID == contestID {
			result = append(result, copyBackingBet(b))
		}
	}
	return result, nil
}

type mintBudgetRepository struct {
	store *Store
}

func (r *mintBudgetRepository) LockDay(ctx context.Context, day time.Time, cap decimal.Decimal) (*models.MintBudget, error) {
	key := budgetKey(day)
	budget, ok := r.store.mintBudgets[key]
	if !ok {
		budget = &models.MintBudget{
			Day:    day.UTC(),
			Minted: decimal.Zero,
			Cap:    cap,
		}
		r.store.mintBudgets[key] = budget
	}
	return copyMintBudget(budget), nil
}

func (r *mintBudgetRepository) AddMinted(ctx context.Context, day time.Time, amount decimal.Decimal) error {
	budget, ok := r.store.mintBudgets[budgetKey(day)]
	if !ok {
		return fmt.Errorf("mint budget row for %s not found", budgetKey(day))
	}
	budget.Minted = budget.Minted.Add(amount)
	return nil
}

type idempotencyRepository struct {
	store *Store
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	record, ok := r.store.idempotency[key]
	if !ok {
		return nil, nil
	}
	return copyIdempotencyRecord(record), nil
}

func (r *idempotencyRepository) InsertIfAbsent(ctx context.Context, record *models.IdempotencyRecord) (bool, error) {
	if _, ok := r.store.idempotency[record.Key]; ok {
		return false, nil
	}
	record.CreatedAt = time.Now().UTC()
	r.store.idempotency[record.Key] = copyIdempotencyRecord(record)
	return true, nil
}
