// Package memory implements the TokenRepository on an in-process map.
// It preserves the same compare-and-set revocation semantics as the
// Postgres implementation and backs development mode and the engine's
// concurrency tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/errors"
)

// TokenRepo is a mutex-guarded in-memory TokenRepository.
type TokenRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.RefreshToken
	byHash map[string]string
}

// NewTokenRepo returns an empty in-memory repository.
func NewTokenRepo() *TokenRepo {
	return &TokenRepo{
		byID:   make(map[string]*models.RefreshToken),
		byHash: make(map[string]string),
	}
}

// clone keeps callers from mutating shared state outside the lock.
func clone(t *models.RefreshToken) *models.RefreshToken {
	cp := *t
	if t.Revocation != nil {
		rev := *t.Revocation
		cp.Revocation = &rev
	}
	return &cp
}

func (r *TokenRepo) Save(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[token.TokenHash]; exists {
		return errors.ErrStoreUnavailable.WithMetadata("reason", "duplicate token hash")
	}
	if _, exists := r.byID[token.ID]; exists {
		return errors.ErrStoreUnavailable.WithMetadata("reason", "duplicate token id")
	}
	r.byID[token.ID] = clone(token)
	r.byHash[token.TokenHash] = token.ID
	return nil
}

func (r *TokenRepo) FindByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil, errors.ErrTokenNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *TokenRepo) FindActiveByUserID(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var out []*models.RefreshToken
	for _, t := range r.byID {
		if t.UserID == userID && t.IsValid(now) {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

func (r *TokenRepo) MarkRevoked(_ context.Context, id string, rev models.Revocation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return false, errors.ErrTokenNotFound
	}
	if t.Revocation != nil {
		return false, nil
	}
	revCopy := rev
	t.Revocation = &revCopy
	return true, nil
}

func (r *TokenRepo) RevokeAllForUser(_ context.Context, userID string, rev models.Revocation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.byID {
		if t.UserID == userID && t.Revocation == nil {
			revCopy := rev
			t.Revocation = &revCopy
			count++
		}
	}
	return count, nil
}

func (r *TokenRepo) RevokeExpired(_ context.Context, now time.Time, rev models.Revocation) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.byID {
		if t.Revocation == nil && t.IsExpired(now) {
			revCopy := rev
			t.Revocation = &revCopy
			count++
		}
	}
	return count, nil
}

func (r *TokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, t := range r.byID {
		if t.ExpiresAt.Before(before) {
			delete(r.byHash, t.TokenHash)
			delete(r.byID, id)
			count++
		}
	}
	return count, nil
}

var _ repository.TokenRepository = (*TokenRepo)(nil)
