// Package identity provides a configuration-backed implementation of the
// user lookup and credential verification contracts. It is a development
// and test stand-in: production deployments plug a real identity backend
// into repository.UserProvider and repository.CredentialVerifier.
package identity

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/errors"
)

// UserEntry is one configured account. PasswordSHA256 is the hex digest
// of the password; this is not a production hashing scheme.
type UserEntry struct {
	ID             string
	Username       string
	PasswordSHA256 string
	Name           string
	Roles          []string
	Active         bool
}

// StaticProvider serves user snapshots from a fixed set.
type StaticProvider struct {
	byID       map[string]UserEntry
	byUsername map[string]UserEntry
}

// NewStaticProvider indexes the configured entries.
func NewStaticProvider(entries []UserEntry) *StaticProvider {
	p := &StaticProvider{
		byID:       make(map[string]UserEntry, len(entries)),
		byUsername: make(map[string]UserEntry, len(entries)),
	}
	for _, e := range entries {
		p.byID[e.ID] = e
		p.byUsername[e.Username] = e
	}
	return p
}

func (p *StaticProvider) FindByID(_ context.Context, id string) (*models.User, error) {
	entry, ok := p.byID[id]
	if !ok {
		return nil, errors.ErrInvalidCredentials
	}
	return toUser(entry), nil
}

// Verify compares the password digest in constant time. The rejection is
// identical whether the user is unknown or the password wrong.
func (p *StaticProvider) Verify(_ context.Context, username, password string) (*models.User, error) {
	entry, ok := p.byUsername[username]
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	if !ok || subtle.ConstantTimeCompare([]byte(digest), []byte(entry.PasswordSHA256)) != 1 {
		return nil, errors.ErrInvalidCredentials
	}
	return toUser(entry), nil
}

func toUser(e UserEntry) *models.User {
	return &models.User{ID: e.ID, Name: e.Name, Active: e.Active, Roles: e.Roles}
}

var (
	_ repository.UserProvider       = (*StaticProvider)(nil)
	_ repository.CredentialVerifier = (*StaticProvider)(nil)
)
