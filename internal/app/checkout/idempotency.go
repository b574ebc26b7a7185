package checkout

import (
	"context"
	"time"
)

// IdempotencyRecord stores the serialized result of a completed checkout
// issue keyed by the client-provided Idempotency-Key header.
type IdempotencyRecord struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// IdempotencyStore persists issue results so a retried request returns the
// original session instead of opening a second one.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}
