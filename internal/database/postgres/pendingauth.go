package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolewarden/rolewarden/internal/domain"
)

// PendingAuthRepository implements repository.PendingAuth
type PendingAuthRepository struct {
	db *pgxpool.Pool
}

// NewPendingAuthRepository creates a new pending authorization repository
func NewPendingAuthRepository(db *pgxpool.Pool) *PendingAuthRepository {
	return &PendingAuthRepository{db: db}
}

// Upsert stores a record, replacing any existing record with the same
// correlation id. Duplicate callback delivery carries identical payloads, so
// last-write-wins is safe.
func (r *PendingAuthRepository) Upsert(ctx context.Context, rec *domain.PendingAuthorization) error {
	accounts, err := json.Marshal(rec.LinkedAccounts)
	if err != nil {
		return fmt.Errorf("marshaling linked accounts: %w", err)
	}

	var identity []byte
	if rec.Identity != nil {
		identity, err = json.Marshal(rec.Identity)
		if err != nil {
			return fmt.Errorf("marshaling identity: %w", err)
		}
	}

	query := `
		INSERT INTO pending_authorizations (correlation_id, access_token, linked_accounts, identity, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (correlation_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			linked_accounts = EXCLUDED.linked_accounts,
			identity = EXCLUDED.identity,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err = r.db.Exec(ctx, query,
		rec.CorrelationID,
		rec.AccessToken,
		accounts,
		identity,
		rec.Status,
		rec.CreatedAt,
		rec.CompletedAt,
	)
	return err
}

// Get returns the record for a correlation id without consuming it.
func (r *PendingAuthRepository) Get(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	query := `
		SELECT correlation_id, access_token, linked_accounts, identity, status, created_at, completed_at
		FROM pending_authorizations
		WHERE correlation_id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, correlationID))
}

// Consume transitions a completed record to consumed and returns it. The
// WHERE clause on status makes the transition atomic: a second concurrent
// consumer matches zero rows and gets ErrRecordNotFound.
func (r *PendingAuthRepository) Consume(ctx context.Context, correlationID string) (*domain.PendingAuthorization, error) {
	query := `
		UPDATE pending_authorizations
		SET status = $2
		WHERE correlation_id = $1 AND status = $3
		RETURNING correlation_id, access_token, linked_accounts, identity, status, created_at, completed_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, correlationID, domain.AuthStatusConsumed, domain.AuthStatusCompleted))
}

// Delete removes a record by correlation id
func (r *PendingAuthRepository) Delete(ctx context.Context, correlationID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_authorizations WHERE correlation_id = $1`, correlationID)
	return err
}

// DeleteExpired removes records older than the TTL
func (r *PendingAuthRepository) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM pending_authorizations WHERE created_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(ttl.Seconds())),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PendingAuthRepository) scanOne(row pgx.Row) (*domain.PendingAuthorization, error) {
	var rec domain.PendingAuthorization
	var accounts []byte
	var identity []byte

	err := row.Scan(
		&rec.CorrelationID,
		&rec.AccessToken,
		&accounts,
		&identity,
		&rec.Status,
		&rec.CreatedAt,
		&rec.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(accounts, &rec.LinkedAccounts); err != nil {
		return nil, fmt.Errorf("unmarshaling linked accounts: %w", err)
	}
	if len(identity) > 0 {
		rec.Identity = &domain.IdentitySnapshot{}
		if err := json.Unmarshal(identity, rec.Identity); err != nil {
			return nil, fmt.Errorf("unmarshaling identity: %w", err)
		}
	}

	return &rec, nil
}
