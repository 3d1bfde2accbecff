package models

import "time"

// AuditEventKind classifies security-relevant events emitted by the token
// lifecycle.
type AuditEventKind string

const (
	AuditTokenIssued    AuditEventKind = "token_issued"
	AuditTokenRefreshed AuditEventKind = "token_refreshed"
	AuditTokenRevoked   AuditEventKind = "token_revoked"
	AuditBulkRevoked    AuditEventKind = "tokens_bulk_revoked"
	AuditReuseDetected  AuditEventKind = "refresh_reuse_detected"
)

// AuditEvent is the envelope published to the audit stream. Reuse
// detection events are the security-critical subset: they indicate that an
// already-rotated refresh token was replayed.
type AuditEvent struct {
	Kind      AuditEventKind         `json:"kind"`
	UserID    string                 `json:"user_id,omitempty"`
	TokenID   string                 `json:"token_id,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	Detail    string                 `json:"detail,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
