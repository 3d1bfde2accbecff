// Package postgres implements the TokenRepository on GORM. The revoke
// paths are single conditional UPDATEs guarded by "revoked_at IS NULL",
// which makes revocation a compare-and-set: under concurrent rotation
// exactly one writer flips the record and every loser observes zero rows
// affected.
package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// tokenRow is the storage shape of a refresh token record. Audit columns
// (created_at, updated_at) are attached here by the store layer and never
// surface on the domain model.
type tokenRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	TokenHash         string `gorm:"uniqueIndex;size:64;not null"`
	UserID            string `gorm:"index;size:36;not null"`
	IssuedAt          time.Time
	ExpiresAt         time.Time `gorm:"index"`
	CreatedByIP       string    `gorm:"size:45"`
	UserAgent         string    `gorm:"size:512"`
	DeviceFingerprint string    `gorm:"size:128"`
	IsPersistent      bool
	RevokedAt         *time.Time `gorm:"index"`
	RevokedByIP       string     `gorm:"size:45"`
	RevokedReason     string     `gorm:"size:128"`
	ReplacedByHash    string     `gorm:"size:64"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (tokenRow) TableName() string { return "refresh_tokens" }

func toRow(t *models.RefreshToken) tokenRow {
	row := tokenRow{
		ID:                t.ID,
		TokenHash:         t.TokenHash,
		UserID:            t.UserID,
		IssuedAt:          t.IssuedAt,
		ExpiresAt:         t.ExpiresAt,
		CreatedByIP:       t.CreatedByIP,
		UserAgent:         t.UserAgent,
		DeviceFingerprint: t.DeviceFingerprint,
		IsPersistent:      t.IsPersistent,
	}
	if t.Revocation != nil {
		at := t.Revocation.At
		row.RevokedAt = &at
		row.RevokedByIP = t.Revocation.ByIP
		row.RevokedReason = t.Revocation.Reason
		row.ReplacedByHash = t.Revocation.ReplacedByHash
	}
	return row
}

func (r tokenRow) toModel() *models.RefreshToken {
	token := &models.RefreshToken{
		ID:                r.ID,
		TokenHash:         r.TokenHash,
		UserID:            r.UserID,
		IssuedAt:          r.IssuedAt,
		ExpiresAt:         r.ExpiresAt,
		CreatedByIP:       r.CreatedByIP,
		UserAgent:         r.UserAgent,
		DeviceFingerprint: r.DeviceFingerprint,
		IsPersistent:      r.IsPersistent,
	}
	if r.RevokedAt != nil {
		token.Revocation = &models.Revocation{
			At:             *r.RevokedAt,
			ByIP:           r.RevokedByIP,
			Reason:         r.RevokedReason,
			ReplacedByHash: r.ReplacedByHash,
		}
	}
	return token
}

// TokenRepo is the GORM-backed TokenRepository.
type TokenRepo struct {
	db  *gorm.DB
	log logger.Logger
}

// NewTokenRepo wraps the given GORM handle. Migrate must have been run.
func NewTokenRepo(db *gorm.DB, log logger.Logger) repository.TokenRepository {
	if log == nil {
		log = logger.NewNoop()
	}
	return &TokenRepo{db: db, log: log.WithComponent("token_repo")}
}

// Migrate creates or updates the refresh_tokens table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&tokenRow{})
}

func (r *TokenRepo) Save(ctx context.Context, token *models.RefreshToken) error {
	row := toRow(token)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.log.Error(ctx, "failed to save refresh token", err,
			logger.String("token_id", token.ID),
			logger.String("user_id", token.UserID),
		)
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var row tokenRow
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.ErrTokenNotFound
	}
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}
	return row.toModel(), nil
}

func (r *TokenRepo) FindActiveByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	var rows []tokenRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now().UTC()).
		Order("expires_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(err)
	}

	tokens := make([]*models.RefreshToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.toModel())
	}
	return tokens, nil
}

func (r *TokenRepo) MarkRevoked(ctx context.Context, id string, rev models.Revocation) (bool, error) {
	res := r.db.WithContext(ctx).Model(&tokenRow{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{
			"revoked_at":       rev.At,
			"revoked_by_ip":    rev.ByIP,
			"revoked_reason":   rev.Reason,
			"replaced_by_hash": rev.ReplacedByHash,
		})
	if res.Error != nil {
		return false, errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string, rev models.Revocation) (int64, error) {
	res := r.db.WithContext(ctx).Model(&tokenRow{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]interface{}{
			"revoked_at":     rev.At,
			"revoked_by_ip":  rev.ByIP,
			"revoked_reason": rev.Reason,
		})
	if res.Error != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TokenRepo) RevokeExpired(ctx context.Context, now time.Time, rev models.Revocation) (int64, error) {
	res := r.db.WithContext(ctx).Model(&tokenRow{}).
		Where("expires_at <= ? AND revoked_at IS NULL", now).
		Updates(map[string]interface{}{
			"revoked_at":     rev.At,
			"revoked_by_ip":  rev.ByIP,
			"revoked_reason": rev.Reason,
		})
	if res.Error != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&tokenRow{})
	if res.Error != nil {
		return 0, errors.ErrStoreUnavailable.WithCause(res.Error)
	}
	return res.RowsAffected, nil
}
