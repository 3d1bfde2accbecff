package service

import (
	"context"
	"sort"
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
	"github.com/turtacn/authgate/pkg/utils"
)

// TokenPolicy is the immutable configuration of the lifecycle engine,
// passed in at construction rather than read from ambient config.
type TokenPolicy struct {
	StandardTTL     time.Duration
	PersistentTTL   time.Duration
	GracePeriod     time.Duration
	MaxActiveTokens int
	RetentionWindow time.Duration
}

// DefaultTokenPolicy returns the stock policy: 7 day standard sessions,
// 30 day persistent sessions, 5 minute rotation grace, 5 live sessions
// per user, 30 day retention past expiry.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{
		StandardTTL:     constants.DefaultRefreshTokenTTL,
		PersistentTTL:   constants.DefaultPersistentTokenTTL,
		GracePeriod:     constants.DefaultRefreshGracePeriod,
		MaxActiveTokens: constants.DefaultMaxActiveTokens,
		RetentionWindow: constants.DefaultRetentionWindow,
	}
}

// LifecycleEngine owns every state transition of refresh token records:
// generation, validation, rotation-on-use, revocation (single and bulk),
// expiry cleanup and the per-user session cap. The engine never caches
// records across calls; the repository is the single race boundary, and
// revocation commits through its conditional MarkRevoked write.
type LifecycleEngine struct {
	repo   repository.TokenRepository
	audit  AuditPublisher
	policy TokenPolicy
	now    func() time.Time
	log    logger.Logger
}

// NewLifecycleEngine constructs the engine. audit may be nil; a nil clock
// defaults to UTC wall time.
func NewLifecycleEngine(repo repository.TokenRepository, audit AuditPublisher, policy TokenPolicy, log logger.Logger, clock func() time.Time) *LifecycleEngine {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = logger.NewNoop()
	}
	return &LifecycleEngine{
		repo:   repo,
		audit:  audit,
		policy: policy,
		now:    clock,
		log:    log.WithComponent("lifecycle_engine"),
	}
}

// Policy returns the engine's immutable policy.
func (e *LifecycleEngine) Policy() TokenPolicy { return e.policy }

// Generate creates and persists a new active record for the user. It
// returns the record together with the raw opaque value, which exists only
// in this return path and is never stored.
func (e *LifecycleEngine) Generate(ctx context.Context, userID, ip string, persistent bool, userAgent, fingerprint string) (*models.RefreshToken, string, error) {
	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return nil, "", errors.Wrap(err, constants.ErrCodeInternal, "failed to generate refresh token")
	}

	ttl := e.policy.StandardTTL
	if persistent {
		ttl = e.policy.PersistentTTL
	}

	record := models.NewRefreshToken(userID, utils.HashTokenValue(value), ip, userAgent, fingerprint, persistent, e.now(), ttl)
	if err := e.repo.Save(ctx, record); err != nil {
		return nil, "", err
	}

	e.log.Debug(ctx, "refresh token generated",
		logger.String("token_id", record.ID),
		logger.String("user_id", userID),
		logger.Bool("persistent", persistent),
	)
	e.publish(ctx, models.AuditEvent{
		Kind:      models.AuditTokenIssued,
		UserID:    userID,
		TokenID:   record.ID,
		IPAddress: ip,
		Timestamp: e.now(),
	})
	return record, value, nil
}

// CanUse reports whether the record may authenticate right now.
func (e *LifecycleEngine) CanUse(record *models.RefreshToken) bool {
	return record != nil && record.IsValid(e.now())
}

// CanRefresh reports whether the record is eligible for rotation: valid
// and outside the final grace window before expiry.
func (e *LifecycleEngine) CanRefresh(record *models.RefreshToken) bool {
	return record != nil && record.IsRefreshable(e.now(), e.policy.GracePeriod)
}

// Revoke marks the record revoked through a conditional store write. The
// first return value reports whether this call performed the transition;
// false means the record was already revoked, which is a no-op rather than
// an error so that revocation stays idempotent.
func (e *LifecycleEngine) Revoke(ctx context.Context, record *models.RefreshToken, ip, reason, replacedByHash string) (bool, error) {
	if record.IsRevoked() {
		return false, nil
	}

	rev := models.Revocation{At: e.now(), ByIP: ip, Reason: reason, ReplacedByHash: replacedByHash}
	wasActive, err := e.repo.MarkRevoked(ctx, record.ID, rev)
	if err != nil {
		return false, err
	}
	if wasActive {
		record.Revocation = &rev
		e.publish(ctx, models.AuditEvent{
			Kind:      models.AuditTokenRevoked,
			UserID:    record.UserID,
			TokenID:   record.ID,
			IPAddress: ip,
			Detail:    reason,
			Timestamp: e.now(),
		})
	}
	return wasActive, nil
}

// RevokeAll revokes every currently active record owned by the user in a
// single order-independent store write. Safe to race with a concurrent
// Generate for the same user: the new record simply survives.
func (e *LifecycleEngine) RevokeAll(ctx context.Context, userID, ip, reason string) (int64, error) {
	rev := models.Revocation{At: e.now(), ByIP: ip, Reason: reason}
	count, err := e.repo.RevokeAllForUser(ctx, userID, rev)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		e.publish(ctx, models.AuditEvent{
			Kind:      models.AuditBulkRevoked,
			UserID:    userID,
			IPAddress: ip,
			Detail:    reason,
			Timestamp: e.now(),
			Metadata:  map[string]interface{}{"revoked_count": count},
		})
	}
	return count, nil
}

// RotateOnRefresh atomically retires the old record and issues its
// replacement. Exactly one concurrent caller wins the conditional revoke;
// a loser observes the record already revoked, which is the reuse signal:
// the presented value was replayed after rotation. On reuse the entire
// token family of the user is revoked and errors.ErrTokenReuse returned.
func (e *LifecycleEngine) RotateOnRefresh(ctx context.Context, old *models.RefreshToken, ip, userAgent string) (*models.RefreshToken, string, error) {
	if old.IsRevoked() {
		return nil, "", e.handleReuse(ctx, old, ip)
	}
	if !e.CanRefresh(old) {
		return nil, "", errors.ErrInvalidToken
	}

	value, err := utils.NewRefreshTokenValue()
	if err != nil {
		return nil, "", errors.Wrap(err, constants.ErrCodeInternal, "failed to generate replacement token")
	}
	replacement := models.NewRefreshToken(old.UserID, utils.HashTokenValue(value), ip, userAgent, old.DeviceFingerprint, old.IsPersistent, e.now(), e.ttlFor(old))

	// Claim the old record first. Persisting the replacement only after
	// winning the CAS guarantees a loser never leaves an orphan record.
	rev := models.Revocation{
		At:             e.now(),
		ByIP:           ip,
		Reason:         constants.RevokeReasonRefresh,
		ReplacedByHash: replacement.TokenHash,
	}
	wasActive, err := e.repo.MarkRevoked(ctx, old.ID, rev)
	if err != nil {
		return nil, "", err
	}
	if !wasActive {
		return nil, "", e.handleReuse(ctx, old, ip)
	}
	old.Revocation = &rev

	if err := e.repo.Save(ctx, replacement); err != nil {
		// The old record is already retired; there is no rollback. The
		// client must log in again, which is the documented behavior for
		// a rotation that does not complete.
		e.log.Error(ctx, "failed to persist replacement token after rotation", err,
			logger.String("user_id", old.UserID),
			logger.String("old_token_id", old.ID),
		)
		return nil, "", err
	}

	e.publish(ctx, models.AuditEvent{
		Kind:      models.AuditTokenRefreshed,
		UserID:    old.UserID,
		TokenID:   replacement.ID,
		IPAddress: ip,
		Timestamp: e.now(),
		Metadata:  map[string]interface{}{"replaced_token_id": old.ID},
	})
	return replacement, value, nil
}

// handleReuse treats presentation of an already-revoked refresh token as
// a theft signal: the whole token family for the user is revoked and the
// event is logged and published distinctly, while the caller still maps
// the returned error to the uniform invalid-token response.
func (e *LifecycleEngine) handleReuse(ctx context.Context, record *models.RefreshToken, ip string) error {
	e.log.Warn(ctx, "refresh token reuse detected, revoking token family",
		logger.String("user_id", record.UserID),
		logger.String("token_id", record.ID),
		logger.String("ip", ip),
	)

	count, err := e.repo.RevokeAllForUser(ctx, record.UserID, models.Revocation{
		At:     e.now(),
		ByIP:   ip,
		Reason: constants.RevokeReasonReuseDetect,
	})
	if err != nil {
		e.log.Error(ctx, "failed to revoke token family after reuse", err,
			logger.String("user_id", record.UserID))
	}

	e.publish(ctx, models.AuditEvent{
		Kind:      models.AuditReuseDetected,
		UserID:    record.UserID,
		TokenID:   record.ID,
		IPAddress: ip,
		Detail:    constants.RevokeReasonReuseDetect,
		Timestamp: e.now(),
		Metadata:  map[string]interface{}{"family_revoked": count},
	})
	return errors.ErrTokenReuse
}

// CleanupExpired revokes every record that passed its natural expiry
// without being explicitly revoked, recording the automatic-cleanup
// reason. It never deletes; the retention purge is PurgeBeyondRetention.
func (e *LifecycleEngine) CleanupExpired(ctx context.Context, ip string) (int64, error) {
	rev := models.Revocation{At: e.now(), ByIP: ip, Reason: constants.RevokeReasonExpired}
	return e.repo.RevokeExpired(ctx, e.now(), rev)
}

// PurgeBeyondRetention hard-deletes records whose expiry lies further in
// the past than the retention window.
func (e *LifecycleEngine) PurgeBeyondRetention(ctx context.Context) (int64, error) {
	cutoff := e.now().Add(-e.policy.RetentionWindow)
	return e.repo.DeleteExpired(ctx, cutoff)
}

// HasTooManyActiveTokens reports whether the snapshot exceeds the per-user
// session cap. The cap is soft: concurrent logins may transiently exceed
// it, corrected by the next login's eviction pass.
func (e *LifecycleEngine) HasTooManyActiveTokens(records []*models.RefreshToken) bool {
	return e.countValid(records) > e.policy.MaxActiveTokens
}

// TokensToRevoke returns the valid records beyond the cap, soonest natural
// expiry first. Evicting by ascending ExpiresAt retires sessions nearing
// end-of-life and preserves freshly issued ones.
func (e *LifecycleEngine) TokensToRevoke(records []*models.RefreshToken) []*models.RefreshToken {
	now := e.now()
	valid := make([]*models.RefreshToken, 0, len(records))
	for _, r := range records {
		if r.IsValid(now) {
			valid = append(valid, r)
		}
	}
	if len(valid) <= e.policy.MaxActiveTokens {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].ExpiresAt.Before(valid[j].ExpiresAt)
	})
	return valid[:len(valid)-e.policy.MaxActiveTokens]
}

func (e *LifecycleEngine) countValid(records []*models.RefreshToken) int {
	now := e.now()
	n := 0
	for _, r := range records {
		if r.IsValid(now) {
			n++
		}
	}
	return n
}

func (e *LifecycleEngine) ttlFor(old *models.RefreshToken) time.Duration {
	if old.IsPersistent {
		return e.policy.PersistentTTL
	}
	return e.policy.StandardTTL
}

func (e *LifecycleEngine) publish(ctx context.Context, event models.AuditEvent) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Publish(ctx, event); err != nil {
		e.log.Warn(ctx, "failed to publish audit event",
			logger.String("kind", string(event.Kind)),
			logger.Error(err),
		)
	}
}
