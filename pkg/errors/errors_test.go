package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
)

func TestSentinelMatching(t *testing.T) {
	wrapped := errors.ErrInvalidToken.WithCause(fmt.Errorf("signature mismatch"))
	assert.True(t, errors.Is(wrapped, errors.ErrInvalidToken))

	// Reuse shares the client-facing code with invalid-token but stays a
	// distinct sentinel internally.
	assert.Equal(t, errors.CodeOf(errors.ErrTokenReuse), errors.CodeOf(errors.ErrInvalidToken))
	assert.False(t, errors.Is(errors.ErrTokenReuse, errors.ErrInvalidToken))
	assert.True(t, errors.Is(errors.ErrTokenReuse, errors.ErrTokenReuse))
}

func TestWithCausePreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.ErrStoreUnavailable.WithCause(cause)

	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	assert.True(t, stderrors.Is(err, cause))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, constants.ErrCodeServiceUnavailable, appErr.Code)
}

func TestWithCauseDoesNotMutateSentinel(t *testing.T) {
	_ = errors.ErrInternal.WithCause(stderrors.New("boom"))
	assert.Nil(t, stderrors.Unwrap(errors.ErrInternal))
}

func TestWithMetadata(t *testing.T) {
	err := errors.ErrInvalidRequest.WithMetadata("field", "username")

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "username", appErr.Metadata()["field"])
	assert.Empty(t, mustApp(t, errors.ErrInvalidRequest).Metadata())
}

func TestCodeAndStatusOf(t *testing.T) {
	assert.Equal(t, constants.ErrCodeInvalidToken, errors.CodeOf(errors.ErrInvalidToken))
	assert.Equal(t, http.StatusUnauthorized, errors.HTTPStatusOf(errors.ErrInvalidToken))

	// Unknown errors collapse to internal.
	plain := stderrors.New("something else")
	assert.Equal(t, constants.ErrCodeInternal, errors.CodeOf(plain))
	assert.Equal(t, http.StatusInternalServerError, errors.HTTPStatusOf(plain))
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.Wrap(cause, constants.ErrCodeInternal, "failed to persist record")

	assert.Contains(t, err.Error(), "failed to persist record")
	assert.True(t, stderrors.Is(err, cause))
}

func mustApp(t *testing.T, err error) *errors.AppError {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	return appErr
}
