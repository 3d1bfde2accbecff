package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/application/dto"
	appservice "github.com/turtacn/authgate/internal/application/service"
	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/internal/infrastructure/identity"
	memblacklist "github.com/turtacn/authgate/internal/infrastructure/memory"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	memstore "github.com/turtacn/authgate/internal/infrastructure/persistence/memory"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
)

// sha256("correct horse")
const passwordDigest = "4104d36f8da2c254349f85836793ebe029e0c957063a34c91c2e9203187b5631"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memstore.NewTokenRepo()
	engine := domainservice.NewLifecycleEngine(repo, nil, domainservice.DefaultTokenPolicy(), nil, nil)
	keys, err := crypto.NewGeneratedKeyManager()
	require.NoError(t, err)
	codec := crypto.NewJWTCodec(keys, crypto.CodecConfig{
		Issuer: "authgate-test", Audience: "api", AccessTokenTTL: 15 * time.Minute,
	}, nil)
	users := identity.NewStaticProvider([]identity.UserEntry{
		{ID: "user-alice", Username: "alice", PasswordSHA256: passwordDigest, Name: "Alice", Active: true},
	})
	svc := appservice.NewAuthService(engine, codec, memblacklist.NewTokenBlacklist(), repo, users, users, nil)

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	h := handlers.NewAuthHandler(svc, metrics)

	router := gin.New()
	auth := router.Group("/v1/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)
	return router
}

func post(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func loginPair(t *testing.T, router *gin.Engine) dto.TokenPairResponse {
	t.Helper()
	rec := post(t, router, "/v1/auth/login", dto.LoginRequest{Username: "alice", Password: "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	var pair dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t)

	pair := loginPair(t, router)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/v1/auth/login", dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_credentials", resp.Error)
}

func TestLoginEndpointMissingFields(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/v1/auth/login", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t)
	pair := loginPair(t, router)

	rec := post(t, router, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var next dto.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
}

// A replayed refresh token and a never-issued one must be
// indistinguishable from the client side.
func TestRefreshEndpointUniformRejection(t *testing.T) {
	router := newTestRouter(t)
	pair := loginPair(t, router)

	// Consume the token once, then replay it.
	rec := post(t, router, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	replayed := post(t, router, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	unknown := post(t, router, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: "never-issued"})

	assert.Equal(t, http.StatusUnauthorized, replayed.Code)
	assert.Equal(t, replayed.Code, unknown.Code)
	assert.JSONEq(t, unknown.Body.String(), replayed.Body.String())
}

func TestLogoutEndpoint(t *testing.T) {
	router := newTestRouter(t)
	pair := loginPair(t, router)

	rec := post(t, router, "/v1/auth/logout", dto.LogoutRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.LogoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	// The revoked token cannot refresh anymore.
	rec = post(t, router, "/v1/auth/refresh", dto.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointEmptyRequest(t *testing.T) {
	router := newTestRouter(t)

	rec := post(t, router, "/v1/auth/logout", dto.LogoutRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
