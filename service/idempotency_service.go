package service

import (
	"context"
	"encoding/json"
	"fmt"

	"tavla/models"
)

type idempotencyGuard struct {
	uowFactory UnitOfWorkFactory
}

// NewIdempotencyGuard creates a new idempotency guard
func NewIdempotencyGuard(uowFactory UnitOfWorkFactory) IdempotencyGuard {
	return &idempotencyGuard{
		uowFactory: uowFactory,
	}
}

// Execute looks up the key, replays a stored response if one exists,
// and otherwise runs op and stores its outcome. Storage is an atomic
// insert-if-absent: when two requests race on the same key, the loser
// re-reads and returns the winner's stored response. Outcomes include
// deliberate rejections: a retried request that previously failed
// validation gets the same rejection back, not a different answer. An
// op error means infrastructure failure; nothing is stored so a later
// retry can succeed.
func (g *idempotencyGuard) Execute(ctx context.Context, key string, op GuardedOp) (*models.IdempotencyRecord, bool, error) {
	if key == "" {
		responseType, payload, err := op(ctx)
		if err != nil {
			return nil, false, err
		}
		raw, merr := json.Marshal(payload)
		if merr != nil {
			return nil, false, fmt.Errorf("failed to marshal response: %w", merr)
		}
		return &models.IdempotencyRecord{ResponseType: responseType, Payload: raw}, false, nil
	}

	stored, err := g.lookup(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if stored != nil {
		return stored, true, nil
	}

	responseType, payload, err := op(ctx)
	if err != nil {
		return nil, false, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal response: %w", err)
	}

	record := &models.IdempotencyRecord{
		Key:          key,
		ResponseType: responseType,
		Payload:      raw,
	}

	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	inserted, err := uow.IdempotencyRepository().InsertIfAbsent(ctx, record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store idempotency record: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit idempotency record: %w", err)
	}

	if !inserted {
		// Lost the race; the winner's response is authoritative.
		stored, err := g.lookup(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if stored == nil {
			return nil, false, fmt.Errorf("idempotency key %q vanished after conflict", key)
		}
		return stored, true, nil
	}

	return record, false, nil
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.IdempotencyRepository().Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return record, nil
}
