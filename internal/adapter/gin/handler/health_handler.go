package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"user-crud-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger is a dependency the readiness check can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and the welcome page.
type HealthHandler struct {
	service string
	checks  map[string]Pinger
	timeout time.Duration
	log     *zap.Logger
}

// NewHealthHandler creates a HealthHandler. checks maps a dependency name to its pinger.
func NewHealthHandler(service string, checks map[string]Pinger, timeout time.Duration, log *zap.Logger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{
		service: service,
		checks:  checks,
		timeout: timeout,
		log:     log,
	}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "User CRUD API",
		"docs":    "/swagger/index.html",
	})
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}

// Ready handles GET /ready by pinging every dependency concurrently.
func (h *HealthHandler) Ready(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		g       errgroup.Group
	)

	for name, check := range h.checks {
		g.Go(func() error {
			err := check.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
				results[name] = "unavailable"
				return err
			}
			results[name] = "ok"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"checks": results,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": results,
	})
}
