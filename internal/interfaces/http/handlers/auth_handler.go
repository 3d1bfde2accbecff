// Package handlers contains the gin HTTP handlers.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/pkg/errors"
)

// AuthHandler exposes login, refresh and logout.
type AuthHandler struct {
	auth    service.AuthService
	metrics *monitoring.Metrics
}

// NewAuthHandler creates the handler.
func NewAuthHandler(auth service.AuthService, metrics *monitoring.Metrics) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: metrics}
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.metrics.LoginRequests.WithLabelValues("failure").Inc()
		dto.SendError(c, err)
		return
	}

	h.metrics.LoginRequests.WithLabelValues("success").Inc()
	dto.SendSuccess(c, pair)
}

// Refresh handles POST /v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	start := time.Now()
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		result := "failure"
		if errors.Is(err, errors.ErrTokenReuse) {
			result = "reuse"
			h.metrics.ReuseDetected.Inc()
		}
		h.metrics.RecordRefresh(result, time.Since(start))
		dto.SendError(c, err)
		return
	}

	h.metrics.RecordRefresh("success", time.Since(start))
	dto.SendSuccess(c, pair)
}

// Logout handles POST /v1/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	ok, err := h.auth.Logout(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		dto.SendError(c, err)
		return
	}
	if ok {
		reason := "logout"
		if req.AllSessions {
			reason = "logout_all"
		}
		h.metrics.TokenRevocations.WithLabelValues(reason).Inc()
	}
	dto.SendSuccess(c, dto.LogoutResponse{Success: ok})
}
