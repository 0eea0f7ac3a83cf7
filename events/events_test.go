package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)

	var mu sync.Mutex
	var received Event
	bus.Subscribe(EventTypeContestSettled, func(ctx context.Context, event Event) {
		mu.Lock()
		received = event
		mu.Unlock()
		wg.Done()
	})

	bus.Emit(context.Background(), ContestSettledEvent{
		ContestID: "contest-1",
		WinnerID:  1,
		LoserID:   2,
		Pot:       decimal.NewFromInt(200),
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	settled, ok := received.(ContestSettledEvent)
	require.True(t, ok)
	assert.Equal(t, "contest-1", settled.ContestID)
}

func TestBus_HandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), BalanceChangeEvent{AccountID: 1})
		time.Sleep(50 * time.Millisecond)
	})
}

func TestTransactionalBus_FlushAfterCommit(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(EventTypeEscrowHeld, func(ctx context.Context, event Event) {
		wg.Done()
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(EscrowHeldEvent{ContestID: "contest-1", AccountID: 1})

	require.NoError(t, txBus.Flush(context.Background()))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flushed event was not delivered")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	bus := NewBus()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(EventTypeEscrowHeld, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(EscrowHeldEvent{ContestID: "contest-1", AccountID: 1})
	txBus.Discard()

	require.NoError(t, txBus.Flush(context.Background()))

	select {
	case <-delivered:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}
