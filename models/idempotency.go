package models

import (
	"encoding/json"
	"time"
)

// IdempotencyRecord maps a caller-supplied key to the response a
// financial endpoint produced on first execution. Records are created
// once and never updated; a retry with the same key replays the stored
// payload verbatim, including deliberately stored rejections.
type IdempotencyRecord struct {
	Key          string          `db:"key"`
	ResponseType string          `db:"response_type"`
	Payload      json.RawMessage `db:"payload"`
	CreatedAt    time.Time       `db:"created_at"`
}
