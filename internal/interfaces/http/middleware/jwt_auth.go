// Package middleware contains the gin middleware for protected routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// extractBearer returns the token from an Authorization header, or "".
func extractBearer(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth protects a route: the request must carry a bearer access
// token that passes codec validation and is not blacklisted. The
// authenticated claims are stored on the gin context under
// constants.ContextKeyClaims.
func RequireAuth(auth service.AuthService, log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNoop()
	}
	log = log.WithComponent("jwt_auth")

	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := auth.Validate(c.Request.Context(), token)
		if err != nil {
			log.Debug(c.Request.Context(), "access token rejected", logger.Error(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(string(constants.ContextKeyClaims), claims)
		c.Next()
	}
}
