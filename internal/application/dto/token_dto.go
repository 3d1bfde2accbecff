// Package dto defines the request and response shapes of the HTTP API.
package dto

import "time"

// LoginRequest carries the credential pair presented at login.
// Persistent requests a long-lived "remember me" session.
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Persistent bool   `json:"persistent"`
	// DeviceFingerprint is optional provenance metadata.
	DeviceFingerprint string `json:"device_fingerprint"`
}

// RefreshRequest exchanges a refresh token value for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest invalidates tokens. At least one of RefreshToken or
// AccessToken must be set; AllSessions revokes every session of the
// owning user.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	AllSessions  bool   `json:"all_sessions"`
}

// TokenPairResponse is returned from login and refresh.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LogoutResponse reports whether any token was invalidated.
type LogoutResponse struct {
	Success bool `json:"success"`
}
