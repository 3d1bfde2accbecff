// Package service provides the application-level orchestration over the
// domain services: the four external operations (login, refresh, logout,
// validate) composed from the lifecycle engine, the access token codec
// and the blacklist.
package service

import (
	"context"
	"time"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
	"github.com/turtacn/authgate/pkg/utils"
)

// AuthService is the external surface consumed by the HTTP handlers.
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, ip, userAgent string) (*dto.TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*dto.TokenPairResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest, ip string) (bool, error)
	Validate(ctx context.Context, accessToken string) (*models.AccessClaims, error)
}

type authService struct {
	engine      *domainservice.LifecycleEngine
	codec       domainservice.AccessTokenCodec
	blacklist   domainservice.TokenBlacklist
	tokens      repository.TokenRepository
	users       repository.UserProvider
	credentials repository.CredentialVerifier
	log         logger.Logger
}

// NewAuthService wires the orchestrator.
func NewAuthService(
	engine *domainservice.LifecycleEngine,
	codec domainservice.AccessTokenCodec,
	blacklist domainservice.TokenBlacklist,
	tokens repository.TokenRepository,
	users repository.UserProvider,
	credentials repository.CredentialVerifier,
	log logger.Logger,
) AuthService {
	if log == nil {
		log = logger.NewNoop()
	}
	return &authService{
		engine:      engine,
		codec:       codec,
		blacklist:   blacklist,
		tokens:      tokens,
		users:       users,
		credentials: credentials,
		log:         log.WithComponent("auth_service"),
	}
}

// Login verifies credentials externally, issues a refresh record plus an
// access token, and enforces the session cap by evicting the sessions
// closest to natural expiry.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ip, userAgent string) (*dto.TokenPairResponse, error) {
	user, err := s.credentials.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, errors.ErrAccountInactive
	}

	record, value, err := s.engine.Generate(ctx, user.ID, ip, req.Persistent, userAgent, req.DeviceFingerprint)
	if err != nil {
		return nil, err
	}

	// Cap enforcement after issue: the snapshot includes the new record,
	// so the excess is exactly what TokensToRevoke returns. The cap is a
	// soft one under concurrent logins and self-corrects on the next
	// pass.
	s.enforceSessionCap(ctx, user.ID, ip)

	accessToken, claims, err := s.codec.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login succeeded",
		logger.String("user_id", user.ID),
		logger.Bool("persistent", req.Persistent),
	)
	return tokenPair(accessToken, claims, value, record), nil
}

// Refresh rotates the presented refresh token and reissues the access
// token. The old value becomes permanently unusable the instant rotation
// commits, even if the client never receives the response.
func (s *authService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*dto.TokenPairResponse, error) {
	record, err := s.tokens.FindByHash(ctx, utils.HashTokenValue(refreshToken))
	if err != nil {
		if errors.Is(err, errors.ErrTokenNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, err
	}

	// A revoked record presented again is the reuse signal; the engine
	// revokes the whole token family. This runs before any user check so
	// a replayed token always triggers the security response. The client
	// still sees the same response as for any other invalid token.
	if record.IsRevoked() {
		_, _, err := s.engine.RotateOnRefresh(ctx, record, ip, userAgent)
		return nil, err
	}
	if !s.engine.CanRefresh(record) {
		return nil, errors.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, errors.ErrInvalidToken
	}
	if !user.Active {
		return nil, errors.ErrAccountInactive
	}

	// The rotation itself may still lose a race against a concurrent
	// refresh of the same value; the engine reports that as reuse too.
	replacement, value, err := s.engine.RotateOnRefresh(ctx, record, ip, userAgent)
	if err != nil {
		return nil, err
	}

	accessToken, claims, err := s.codec.Issue(user)
	if err != nil {
		return nil, err
	}
	return tokenPair(accessToken, claims, value, replacement), nil
}

// Logout revokes the presented refresh token (or all of the user's
// sessions) and denylists the presented access token. It succeeds when at
// least one path handled something.
func (s *authService) Logout(ctx context.Context, req *dto.LogoutRequest, ip string) (bool, error) {
	if req.RefreshToken == "" && req.AccessToken == "" {
		return false, errors.ErrInvalidRequest
	}

	handled := false

	if req.RefreshToken != "" {
		record, err := s.tokens.FindByHash(ctx, utils.HashTokenValue(req.RefreshToken))
		switch {
		case err == nil:
			if req.AllSessions {
				count, revokeErr := s.engine.RevokeAll(ctx, record.UserID, ip, constants.RevokeReasonLogoutAll)
				if revokeErr != nil {
					return false, revokeErr
				}
				handled = count > 0
			} else {
				wasActive, revokeErr := s.engine.Revoke(ctx, record, ip, constants.RevokeReasonLogout, "")
				if revokeErr != nil {
					return false, revokeErr
				}
				// Idempotent: logging out an already-revoked session is
				// still a handled logout.
				handled = true
				_ = wasActive
			}
		case errors.Is(err, errors.ErrTokenNotFound):
			// Unknown value: nothing to revoke, fall through to the
			// access token path.
		default:
			return false, err
		}
	}

	if req.AccessToken != "" {
		if claims, err := s.codec.Validate(req.AccessToken); err == nil {
			if blErr := s.blacklist.Add(ctx, req.AccessToken, claims.ExpiresAt.Time); blErr != nil {
				return false, blErr
			}
			handled = true
		}
		// An invalid access token needs no denylisting; it is already
		// unusable.
	}

	if !handled {
		return false, errors.ErrInvalidToken
	}
	return true, nil
}

// Validate is the reusable check behind every protected request: codec
// validation first, then the blacklist. A cryptographically valid token
// can still be denylisted.
func (s *authService) Validate(ctx context.Context, accessToken string) (*models.AccessClaims, error) {
	claims, err := s.codec.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	blocked, err := s.blacklist.Contains(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) enforceSessionCap(ctx context.Context, userID, ip string) {
	active, err := s.tokens.FindActiveByUserID(ctx, userID)
	if err != nil {
		s.log.Warn(ctx, "failed to load active tokens for cap enforcement",
			logger.String("user_id", userID),
			logger.Error(err),
		)
		return
	}
	for _, excess := range s.engine.TokensToRevoke(active) {
		if _, err := s.engine.Revoke(ctx, excess, ip, constants.RevokeReasonSessionCap, ""); err != nil {
			s.log.Warn(ctx, "failed to evict session beyond cap",
				logger.String("user_id", userID),
				logger.String("token_id", excess.ID),
				logger.Error(err),
			)
		}
	}
}

func tokenPair(accessToken string, claims *models.AccessClaims, refreshValue string, record *models.RefreshToken) *dto.TokenPairResponse {
	return &dto.TokenPairResponse{
		AccessToken:      accessToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(time.Until(claims.ExpiresAt.Time).Seconds()),
		RefreshToken:     refreshValue,
		RefreshExpiresAt: record.ExpiresAt,
	}
}
