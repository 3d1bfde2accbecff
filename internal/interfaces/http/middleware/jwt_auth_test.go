package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/domain/models"
	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/internal/infrastructure/identity"
	memblacklist "github.com/turtacn/authgate/internal/infrastructure/memory"
	memstore "github.com/turtacn/authgate/internal/infrastructure/persistence/memory"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/pkg/constants"
)

func setupProtected(t *testing.T) (*gin.Engine, *crypto.JWTCodec, domainservice.TokenBlacklist) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memstore.NewTokenRepo()
	engine := domainservice.NewLifecycleEngine(repo, nil, domainservice.DefaultTokenPolicy(), nil, nil)
	keys, err := crypto.NewGeneratedKeyManager()
	require.NoError(t, err)
	codec := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer: "authgate-test", Audience: "api", AccessTokenTTL: 15 * time.Minute,
	}, nil)
	blacklist := memblacklist.NewTokenBlacklist()
	users := identity.NewStaticProvider(nil)
	svc := appservice.NewAuthService(engine, codec, blacklist, repo, users, users, nil)

	router := gin.New()
	router.GET("/me", middleware.RequireAuth(svc, nil), func(c *gin.Context) {
		claims := c.MustGet(string(constants.ContextKeyClaims)).(*models.AccessClaims)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	return router, codec, blacklist
}

func get(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	router, codec, blacklist := setupProtected(t)

	signed, claims, err := codec.Issue(&models.User{ID: "user-1", Name: "Alice", Active: true})
	require.NoError(t, err)

	rec := get(router, "bearer "+signed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")

	// Missing, malformed and forged headers are all 401.
	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer not-a-token").Code)

	// A denylisted token is rejected even though its signature verifies.
	require.NoError(t, blacklist.Add(t.Context(), signed, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+signed).Code)
}
