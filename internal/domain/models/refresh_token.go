// Package models defines the domain models for the authgate service.
// This file contains the RefreshToken record and its lifecycle predicates.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Revocation captures the terminal state of a refresh token. A record is
// revoked exactly when its Revocation pointer is non-nil; the one-way
// Active -> Revoked transition is therefore structural rather than
// convention-based.
type Revocation struct {
	At             time.Time `json:"at"`
	ByIP           string    `json:"by_ip,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ReplacedByHash string    `json:"replaced_by_hash,omitempty"`
}

// RefreshToken is the durable record behind an opaque refresh token value.
// The raw value is handed to the client once at creation and never stored;
// the record is keyed by the SHA-256 digest of the value.
type RefreshToken struct {
	// ID is an opaque unique identifier, assigned at creation, immutable.
	ID string `json:"id"`

	// TokenHash is the hex SHA-256 digest of the opaque value. Unique
	// across all records, immutable.
	TokenHash string `json:"token_hash"`

	// UserID references the owning identity. Many records may share a
	// UserID (one per device or session).
	UserID string `json:"user_id"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Provenance metadata, set once at creation. Advisory only: used by
	// anomaly heuristics and audit, never enforced as hard invariants.
	CreatedByIP       string `json:"created_by_ip,omitempty"`
	UserAgent         string `json:"user_agent,omitempty"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`

	// IsPersistent records the "remember me" choice made at login. It
	// determines the TTL and is immutable afterwards.
	IsPersistent bool `json:"is_persistent"`

	// Revocation is nil while the record is active.
	Revocation *Revocation `json:"revocation,omitempty"`
}

// NewRefreshToken builds an active record for the given owner. ttl is
// chosen by the lifecycle engine from the persistence flag.
func NewRefreshToken(userID, tokenHash, ip, userAgent, fingerprint string, persistent bool, now time.Time, ttl time.Duration) *RefreshToken {
	return &RefreshToken{
		ID:                uuid.NewString(),
		TokenHash:         tokenHash,
		UserID:            userID,
		IssuedAt:          now,
		ExpiresAt:         now.Add(ttl),
		CreatedByIP:       ip,
		UserAgent:         userAgent,
		DeviceFingerprint: fingerprint,
		IsPersistent:      persistent,
	}
}

// IsRevoked reports whether the record has been revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.Revocation != nil
}

// IsExpired reports whether the record has passed its natural expiry.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsValid reports whether the record may authenticate: not revoked and
// not expired.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// IsRefreshable reports whether the record may be rotated. A token inside
// its final grace window is still valid but no longer eligible for
// rotation, which closes the double-issue race near expiry.
func (t *RefreshToken) IsRefreshable(now time.Time, grace time.Duration) bool {
	return t.IsValid(now) && t.ExpiresAt.Sub(now) > grace
}

// Revoke marks the record revoked. The first call wins; subsequent calls
// are no-ops and report false so callers can distinguish "was active" from
// "was already revoked" for audit purposes.
func (t *RefreshToken) Revoke(now time.Time, ip, reason, replacedByHash string) bool {
	if t.Revocation != nil {
		return false
	}
	t.Revocation = &Revocation{
		At:             now,
		ByIP:           ip,
		Reason:         reason,
		ReplacedByHash: replacedByHash,
	}
	return true
}

// TimeUntilExpiry returns the remaining lifetime, or 0 when expired.
func (t *RefreshToken) TimeUntilExpiry(now time.Time) time.Duration {
	if t.IsExpired(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}
