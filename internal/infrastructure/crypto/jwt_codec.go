package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/errors"
)

// CodecConfig carries the immutable issuance parameters of the codec.
type CodecConfig struct {
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
}

// JWTCodec signs and verifies access tokens with the process keypair.
// Signing is CPU-bound and side-effect free; the codec holds no mutable
// state and is safe for concurrent use.
type JWTCodec struct {
	keys   *KeyManager
	config CodecConfig
	now    func() time.Time

	parser *jwt.Parser
}

// NewJWTCodec constructs the codec. A nil clock defaults to UTC wall time.
func NewJWTCodec(keys *KeyManager, config CodecConfig, clock func() time.Time) *JWTCodec {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &JWTCodec{
		keys:   keys,
		config: config,
		now:    clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(config.Issuer),
			jwt.WithAudience(config.Audience),
			jwt.WithExpirationRequired(),
			// Zero leeway: expiry is strict, skew is handled by the
			// refresh grace period on the record side.
			jwt.WithLeeway(0),
			jwt.WithTimeFunc(clock),
		),
	}
}

// Issue serializes the user snapshot into a signed access token expiring
// at now + AccessTokenTTL.
func (c *JWTCodec) Issue(user *models.User) (string, *models.AccessClaims, error) {
	now := c.now()
	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    c.config.Issuer,
			Audience:  jwt.ClaimStrings{c.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTokenTTL)),
		},
		Name:      user.Name,
		Roles:     user.Roles,
		TokenType: models.TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = c.keys.KeyID()

	signed, err := token.SignedString(c.keys.Private())
	if err != nil {
		return "", nil, errors.ErrInternal.WithCause(err)
	}
	return signed, claims, nil
}

// Validate verifies the token. Malformed input, a bad signature, a wrong
// issuer or audience and natural expiry all collapse into
// errors.ErrInvalidToken so that the response gives no oracle about why a
// token was rejected.
func (c *JWTCodec) Validate(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.keys.Public(), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if claims.TokenType != models.TokenTypeAccess {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

// ExtractSubject decodes the sub claim without verifying the signature.
// Best effort, for logging and lookup only: authorization decisions must
// go through Validate.
func (c *JWTCodec) ExtractSubject(tokenString string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
