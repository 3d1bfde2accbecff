package repository

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
)

// UserProvider is the external identity lookup consumed by the token
// layer. It returns a snapshot with the active flag and role claims; user
// storage itself is not part of this service.
type UserProvider interface {
	// FindByID returns the user snapshot, or errors.ErrInvalidCredentials
	// when the user does not exist.
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CredentialVerifier checks a username/password pair against the external
// credential store. Hashing, lockout counters and password policy live on
// the other side of this interface.
type CredentialVerifier interface {
	// Verify returns the authenticated user on success and
	// errors.ErrInvalidCredentials on any mismatch, without revealing
	// whether the user exists.
	Verify(ctx context.Context, username, password string) (*models.User, error)
}
