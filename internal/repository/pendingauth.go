package repository

import (
	"context"
	"time"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// PendingAuth defines data access for in-flight OAuth authorizations.
type PendingAuth interface {
	// Upsert stores a record keyed by correlation id, replacing any existing
	// record with the same key.
	Upsert(ctx context.Context, rec *domain.PendingAuthorization) error

	// Get returns the record for a correlation id without consuming it.
	// Returns domain.ErrRecordNotFound if absent.
	Get(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error)

	// Consume atomically transitions a completed record to consumed and
	// returns it. Exactly one caller observes a given record; later callers
	// get domain.ErrRecordNotFound.
	Consume(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error)

	// Delete removes a record by correlation id.
	Delete(ctx context.Context, correlationID string) error

	// DeleteExpired removes records older than the TTL and returns how many
	// were removed.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)
}
