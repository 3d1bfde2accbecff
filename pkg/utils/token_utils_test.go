package utils_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/utils"
)

func TestNewRefreshTokenValue(t *testing.T) {
	value, err := utils.NewRefreshTokenValue()
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	assert.Len(t, decoded, constants.RefreshTokenEntropyBytes)

	other, err := utils.NewRefreshTokenValue()
	require.NoError(t, err)
	assert.NotEqual(t, value, other)
}

func TestHashTokenValue(t *testing.T) {
	// Deterministic, and never the identity function.
	hash := utils.HashTokenValue("some-token")
	assert.Equal(t, hash, utils.HashTokenValue("some-token"))
	assert.NotEqual(t, "some-token", hash)
	assert.Len(t, hash, 64)

	assert.NotEqual(t, hash, utils.HashTokenValue("some-other-token"))
}
