// Package repository defines the persistence contracts consumed by the
// domain layer. Implementations live under internal/infrastructure.
package repository

import (
	"context"
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
)

// TokenRepository is the durable store for refresh token records. The
// lifecycle engine owns all state transitions; the store owns durability
// and is the race boundary for concurrent requests, so every mutating
// operation that flips a record to revoked must be a single conditional
// write (compare-and-set on "not already revoked").
type TokenRepository interface {
	// Save persists a new record. Fails on duplicate token hash; the
	// unique constraint is the backstop behind the generator's entropy.
	Save(ctx context.Context, token *models.RefreshToken) error

	// FindByHash returns the record keyed by the token value digest.
	// Returns errors.ErrTokenNotFound when no record exists.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// FindActiveByUserID returns all unrevoked, unexpired records owned
	// by the user, a snapshot for cap enforcement and bulk revocation.
	FindActiveByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// MarkRevoked atomically sets the revocation fields of the record if
	// and only if it is not already revoked. Returns false (and no error)
	// when another writer won; the caller treats that as a reuse signal
	// during rotation.
	MarkRevoked(ctx context.Context, id string, rev models.Revocation) (bool, error)

	// RevokeAllForUser revokes every currently unrevoked record owned by
	// the user in one conditional write, returning the number revoked.
	RevokeAllForUser(ctx context.Context, userID string, rev models.Revocation) (int64, error)

	// RevokeExpired revokes every record that expired before now and was
	// never explicitly revoked, returning the number revoked.
	RevokeExpired(ctx context.Context, now time.Time, rev models.Revocation) (int64, error)

	// DeleteExpired hard-deletes records whose expiry lies before the
	// given cutoff. Distinct from revocation: this is the retention purge.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
