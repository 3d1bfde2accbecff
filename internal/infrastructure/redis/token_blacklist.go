package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/utils"
)

type tokenBlacklist struct {
	rdb *redis.Client
	now func() time.Time
}

// NewTokenBlacklist returns a Redis-backed denylist for access tokens.
// Entries are keyed by the token digest and expire with the token itself,
// so the set never outlives the tokens it blocks and needs no sweeping.
func NewTokenBlacklist(rdb *redis.Client) service.TokenBlacklist {
	return &tokenBlacklist{rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

func blacklistKey(token string) string {
	return fmt.Sprintf("authgate:bl:%s", utils.HashTokenValue(token))
}

func (b *tokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		// Already expired: signature checks reject it anyway.
		return nil
	}
	if err := b.rdb.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

func (b *tokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, errors.ErrStoreUnavailable.WithCause(err)
	}
	return n == 1, nil
}
