// Package service contains the domain services of the authgate token
// core: the refresh token lifecycle engine and the contracts it composes
// with (access token codec, blacklist, audit stream).
package service

import (
	"context"
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
)

// AccessTokenCodec encodes identity claims into signed, time-bounded
// bearer tokens and verifies presented ones. Implemented by
// infrastructure/crypto.JWTCodec.
type AccessTokenCodec interface {
	// Issue signs a claim set for the user snapshot. The expiry is
	// now + the codec's configured TTL.
	Issue(user *models.User) (string, *models.AccessClaims, error)

	// Validate verifies signature, issuer, audience and expiry with zero
	// clock-skew tolerance. Every failure collapses to
	// errors.ErrInvalidToken; callers must not distinguish causes.
	Validate(tokenString string) (*models.AccessClaims, error)

	// ExtractSubject decodes the subject without verifying the signature.
	// For logging and lookup only, never for authorization decisions.
	ExtractSubject(tokenString string) (string, bool)
}

// TokenBlacklist is a short-lived denylist for access tokens invalidated
// before natural expiry (logout without rotation). Entries are keyed by a
// digest of the token and never outlive the token they block.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// AuditPublisher receives security-relevant lifecycle events. Publishing
// is best-effort: a failed publish is logged, never surfaced to clients.
type AuditPublisher interface {
	Publish(ctx context.Context, event models.AuditEvent) error
}
