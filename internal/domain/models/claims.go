package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the claim set carried by a signed access token. A signed
// token is immutable data; claims are produced once at issuance from a
// user snapshot and never persisted.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Name is the display name of the subject at issuance time.
	Name string `json:"name,omitempty"`

	// Roles are the role claims granted to the subject.
	Roles []string `json:"roles,omitempty"`

	// TokenType is always "access" for tokens minted by the codec.
	TokenType string `json:"typ"`
}

// TokenTypeAccess is the typ claim value for access tokens.
const TokenTypeAccess = "access"
