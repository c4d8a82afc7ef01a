package server

import (
	"net/http"
	"time"

	ginhandler "user-crud-service/internal/adapter/gin/handler"
	ginrouter "user-crud-service/internal/adapter/gin/router"
	grpcmiddleware "user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	cfg *config.Config,
	userHandler *ginhandler.UserHandler,
	healthHandler *ginhandler.HealthHandler,
	rateLimiter *grpcmiddleware.RateLimiter,
	l *zap.Logger,
) *http.Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(userHandler, healthHandler, ginrouter.Options{
		CORSAllowedOrigins: cfg.App.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
	}, l)

	l.Info("Gin REST API configured", zap.String("address", cfg.App.HTTPAddr()))

	return &http.Server{
		Addr:              cfg.App.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
