// Package constants defines shared constants for the authgate service.
package constants

import "time"

// ServiceName is used for tracing, metrics namespaces and log fields.
const ServiceName = "authgate"

// ErrorCode is a machine-readable error code returned to API clients.
type ErrorCode string

const (
	ErrCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrCodeInvalidCredentials ErrorCode = "invalid_credentials"
	ErrCodeInvalidToken       ErrorCode = "invalid_token"
	ErrCodeAccountInactive    ErrorCode = "account_inactive"
	ErrCodeInternal           ErrorCode = "internal_error"
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
)

// Revocation reasons recorded on refresh token records.
const (
	RevokeReasonRefresh     = "used for refresh"
	RevokeReasonLogout      = "logged out"
	RevokeReasonLogoutAll   = "logged out of all sessions"
	RevokeReasonExpired     = "expired - automatic cleanup"
	RevokeReasonSessionCap  = "session cap exceeded"
	RevokeReasonReuseDetect = "refresh token reuse detected"
)

// Default token policy values. Overridable via configuration.
const (
	DefaultAccessTokenTTL      = 15 * time.Minute
	DefaultRefreshTokenTTL     = 7 * 24 * time.Hour
	DefaultPersistentTokenTTL  = 30 * 24 * time.Hour
	DefaultRefreshGracePeriod  = 5 * time.Minute
	DefaultMaxActiveTokens     = 5
	DefaultRetentionWindow     = 30 * 24 * time.Hour
	DefaultSweepInterval       = 1 * time.Hour
	RefreshTokenEntropyBytes   = 32
)

// ContextKey is the type used for values stored in a context.Context.
type ContextKey string

const (
	ContextKeyTraceID ContextKey = "trace_id"
	ContextKeyClaims  ContextKey = "auth_claims"
)
