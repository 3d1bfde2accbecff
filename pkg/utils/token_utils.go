// Package utils provides small helpers shared across layers.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/turtacn/authgate/pkg/constants"
)

// NewRefreshTokenValue generates an opaque refresh token value with at
// least 256 bits of entropy, base64url-encoded without padding.
func NewRefreshTokenValue() (string, error) {
	buf := make([]byte, constants.RefreshTokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashTokenValue returns the hex-encoded SHA-256 digest of a token value.
// Stores and blacklists are keyed by this digest so raw secrets are never
// persisted verbatim.
func HashTokenValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
