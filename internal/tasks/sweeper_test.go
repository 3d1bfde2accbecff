package tasks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/memory"
	"github.com/turtacn/authgate/internal/tasks"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSweeperRevokesAndPurges(t *testing.T) {
	repo := memory.NewTokenRepo()
	clk := &clock{now: time.Now().UTC()}
	policy := domainservice.DefaultTokenPolicy()
	engine := domainservice.NewLifecycleEngine(repo, nil, policy, nil, clk.Now)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	old, _, err := engine.Generate(ctx, "user-1", "", false, "", "")
	require.NoError(t, err)

	ticks := make(chan time.Time)
	sweeper := tasks.NewSweeper(engine, time.Hour, nil, nil).WithTickChannel(ticks)

	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	// First tick: the token expired, the sweeper revokes it in place.
	clk.Advance(policy.StandardTTL + time.Minute)
	ticks <- clk.Now()
	ticks <- clk.Now() // second tick guarantees the first sweep finished

	record, err := repo.FindByHash(ctx, old.TokenHash)
	require.NoError(t, err)
	require.True(t, record.IsRevoked())
	assert.Equal(t, constants.RevokeReasonExpired, record.Revocation.Reason)

	// Past the retention window the record is purged entirely.
	clk.Advance(policy.RetentionWindow + time.Minute)
	ticks <- clk.Now()
	ticks <- clk.Now()

	_, err = repo.FindByHash(ctx, old.TokenHash)
	assert.ErrorIs(t, err, errors.ErrTokenNotFound)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	repo := memory.NewTokenRepo()
	engine := domainservice.NewLifecycleEngine(repo, nil, domainservice.DefaultTokenPolicy(), nil, nil)
	sweeper := tasks.NewSweeper(engine, time.Hour, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
