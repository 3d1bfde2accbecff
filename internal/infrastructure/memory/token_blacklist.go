// Package memory provides single-node in-process fallbacks for the
// Redis-backed adapters, suitable for development and tests.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/utils"
)

type tokenBlacklist struct {
	cache *gocache.Cache
	now   func() time.Time
}

// NewTokenBlacklist returns an in-process denylist backed by go-cache.
// Per-entry TTLs mirror the Redis implementation; the cache janitor
// handles sweeping.
func NewTokenBlacklist() service.TokenBlacklist {
	return &tokenBlacklist{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (b *tokenBlacklist) Add(_ context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	b.cache.Set(utils.HashTokenValue(token), struct{}{}, ttl)
	return nil
}

func (b *tokenBlacklist) Contains(_ context.Context, token string) (bool, error) {
	_, found := b.cache.Get(utils.HashTokenValue(token))
	return found, nil
}
