package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/infrastructure/identity"
	"github.com/turtacn/authgate/pkg/errors"
)

// sha256("correct horse")
const passwordDigest = "4104d36f8da2c254349f85836793ebe029e0c957063a34c91c2e9203187b5631"

func newProvider() *identity.StaticProvider {
	return identity.NewStaticProvider([]identity.UserEntry{
		{ID: "user-1", Username: "alice", PasswordSHA256: passwordDigest, Name: "Alice", Roles: []string{"admin"}, Active: true},
	})
}

func TestFindByID(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	user, err := p.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, user.Active)

	_, err = p.FindByID(ctx, "user-2")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}

func TestVerify(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	user, err := p.Verify(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	// Wrong password and unknown user are rejected identically.
	_, wrongPass := p.Verify(ctx, "alice", "wrong")
	_, unknown := p.Verify(ctx, "bob", "correct horse")
	assert.ErrorIs(t, wrongPass, errors.ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown)
}
