package crypto_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/pkg/errors"
)

var testUser = &models.User{
	ID:     "user-1",
	Name:   "Alice",
	Active: true,
	Roles:  []string{"admin"},
}

func newTestCodec(t *testing.T, clock func() time.Time) (*crypto.JWTCodec, *crypto.KeyManager) {
	t.Helper()
	keys, err := crypto.NewGeneratedKeyManager()
	require.NoError(t, err)
	codec := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer:         "authgate-test",
		Audience:       "api",
		AccessTokenTTL: 15 * time.Minute,
	}, clock)
	return codec, keys
}

func TestIssueAndValidate(t *testing.T) {
	codec, _ := newTestCodec(t, nil)

	signed, issued, err := codec.Issue(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	assert.Equal(t, models.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, issued.ExpiresAt.Time.Unix(), claims.ExpiresAt.Time.Unix())
}

func TestValidateRejectsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	codec, _ := newTestCodec(t, clock)

	signed, _, err := codec.Issue(testUser)
	require.NoError(t, err)

	// Still valid just before expiry.
	now = now.Add(15*time.Minute - time.Second)
	_, err = codec.Validate(signed)
	require.NoError(t, err)

	// Dead at expiry, with zero leeway.
	now = now.Add(2 * time.Second)
	_, err = codec.Validate(signed)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	codec, _ := newTestCodec(t, nil)
	other, _ := newTestCodec(t, nil)

	signed, _, err := other.Issue(testUser)
	require.NoError(t, err)

	_, err = codec.Validate(signed)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestValidateRejectsWrongIssuerAndAudience(t *testing.T) {
	keys, err := crypto.NewGeneratedKeyManager()
	require.NoError(t, err)

	codec := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer: "authgate-test", Audience: "api", AccessTokenTTL: 15 * time.Minute,
	}, nil)
	wrongIssuer := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer: "someone-else", Audience: "api", AccessTokenTTL: 15 * time.Minute,
	}, nil)
	wrongAudience := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer: "authgate-test", Audience: "other-api", AccessTokenTTL: 15 * time.Minute,
	}, nil)

	for _, other := range []*crypto.JWTCodec{wrongIssuer, wrongAudience} {
		signed, _, err := other.Issue(testUser)
		require.NoError(t, err)
		_, err = codec.Validate(signed)
		assert.ErrorIs(t, err, errors.ErrInvalidToken)
	}
}

func TestValidateRejectsUnsignedAlgorithm(t *testing.T) {
	codec, _ := newTestCodec(t, nil)

	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "authgate-test",
			Audience:  jwt.ClaimStrings{"api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: models.TokenTypeAccess,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Validate(unsigned)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	codec, _ := newTestCodec(t, nil)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Validate(input)
		assert.ErrorIs(t, err, errors.ErrInvalidToken)
	}
}

func TestValidateRejectsNonAccessType(t *testing.T) {
	codec, keys := newTestCodec(t, nil)

	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "authgate-test",
			Audience:  jwt.ClaimStrings{"api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: "refresh",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(keys.Private())
	require.NoError(t, err)

	_, err = codec.Validate(signed)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestExtractSubject(t *testing.T) {
	codec, _ := newTestCodec(t, nil)

	signed, _, err := codec.Issue(testUser)
	require.NoError(t, err)

	sub, ok := codec.ExtractSubject(signed)
	assert.True(t, ok)
	assert.Equal(t, "user-1", sub)

	_, ok = codec.ExtractSubject("not-a-token")
	assert.False(t, ok)
}

func TestIssueSetsKeyIDHeader(t *testing.T) {
	codec, keys := newTestCodec(t, nil)

	signed, _, err := codec.Issue(testUser)
	require.NoError(t, err)

	token, _, err := jwt.NewParser().ParseUnverified(signed, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, keys.KeyID(), token.Header["kid"])
}
