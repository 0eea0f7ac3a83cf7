package events

import (
	"context"
	"sync"

	"tavla/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeAccountCreated EventType = "account_created"
	EventTypeEscrowHeld     EventType = "escrow_held"
	EventTypeEscrowRefunded EventType = "escrow_refunded"
	EventTypeContestSettled EventType = "contest_settled"
	EventTypeOasisMinted    EventType = "oasis_minted"
	EventTypeBackingSettled EventType = "backing_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance movement
type BalanceChangeEvent struct {
	AccountID       int64
	Amount          decimal.Decimal
	NewBalance      decimal.Decimal
	TransactionType models.TransactionType
	ReferenceID     string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a new wallet account
type AccountCreatedEvent struct {
	AccountID      int64
	InitialBalance decimal.Decimal
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// EscrowHeldEvent represents a stake moved into escrow
type EscrowHeldEvent struct {
	HoldID    string
	ContestID string
	AccountID int64
	Amount    decimal.Decimal
}

func (e EscrowHeldEvent) Type() EventType {
	return EventTypeEscrowHeld
}

// EscrowRefundedEvent represents a cancelled contest's stakes returned
type EscrowRefundedEvent struct {
	ContestID string
	Refunded  int
}

func (e EscrowRefundedEvent) Type() EventType {
	return EventTypeEscrowRefunded
}

// ContestSettledEvent represents a committed contest settlement
type ContestSettledEvent struct {
	ContestID string
	WinnerID  int64
	LoserID   int64
	Pot       decimal.Decimal
	Fee       decimal.Decimal
	Payout    decimal.Decimal
}

func (e ContestSettledEvent) Type() EventType {
	return EventTypeContestSettled
}

// OasisMintedEvent represents reward tokens minted to an account
type OasisMintedEvent struct {
	AccountID int64
	Amount    decimal.Decimal
	Reason    string
}

func (e OasisMintedEvent) Type() EventType {
	return EventTypeOasisMinted
}

// BackingSettledEvent represents a contest's backing bets resolved
type BackingSettledEvent struct {
	ContestID string
	WonBets   int
	LostBets  int
}

func (e BackingSettledEvent) Type() EventType {
	return EventTypeBackingSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction
// commits. Rolled-back work discards its events.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit. Events are emitted on a
// background context so they outlive the request's transaction context.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after rollback to drop pending events
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
