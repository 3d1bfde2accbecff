// Package http builds the gin router and HTTP server for the service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/interfaces/http/handlers"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// RouterDeps are the collaborators of the HTTP surface.
type RouterDeps struct {
	Config        *config.ServerConfig
	Logger        logger.Logger
	AuthService   service.AuthService
	AuthHandler   *handlers.AuthHandler
	HealthHandler *handlers.HealthHandler
}

// NewServer builds the configured gin engine wrapped in an http.Server.
func NewServer(deps RouterDeps) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogging(deps.Logger))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health/live", deps.HealthHandler.Liveness)
	engine.GET("/health/ready", deps.HealthHandler.Readiness)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.Config.PprofEnabled {
		pprof.Register(engine)
	}

	v1 := engine.Group("/v1/auth")
	{
		v1.POST("/login", deps.AuthHandler.Login)
		v1.POST("/refresh", deps.AuthHandler.Refresh)
		v1.POST("/logout", deps.AuthHandler.Logout)
	}

	// Example protected route exercising the validation path end to end.
	protected := engine.Group("/v1", middleware.RequireAuth(deps.AuthService, deps.Logger))
	{
		protected.GET("/me", func(c *gin.Context) {
			claims, _ := c.Get(string(constants.ContextKeyClaims))
			c.JSON(http.StatusOK, claims)
		})
	}

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler:      engine,
		ReadTimeout:  deps.Config.ReadTimeout,
		WriteTimeout: deps.Config.WriteTimeout,
	}
}

// Shutdown drains the server with a bounded grace period.
func Shutdown(ctx context.Context, server *http.Server, grace time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
