package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"user-crud-service/cmd/api/di"
	"user-crud-service/internal/config"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	GRPC   *grpc.Server
	Health *health.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	grpcServer, healthServer := SetupGRPC(cfg.Logger.ServiceName, c.RateLimiter)

	return &Server{
		Config: cfg,
		Logger: l,
		GRPC:   grpcServer,
		Health: healthServer,
		Gin:    SetupGinServer(cfg, c.GinHandler, c.HealthHandler, c.RateLimiter, l),
	}
}

// Start runs the REST and gRPC servers. It returns the first failure, or nil once
// a server has been shut down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 2)

	go func() {
		if err := s.startGRPC(ctx); err != nil {
			errChan <- fmt.Errorf("failed to start gRPC server: %w", err)
			return
		}
		errChan <- nil
	}()

	go func() {
		s.Logger.Info("Gin REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to start Gin server: %w", err)
			return
		}
		errChan <- nil
	}()

	return <-errChan
}

// startGRPC starts the gRPC server
func (s *Server) startGRPC(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.Config.App.GRPCAddr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("gRPC server running", zap.String("address", s.Config.App.GRPCAddr()))
	if err := s.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks the service NOT_SERVING, then drains the REST and gRPC servers.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.Health.Shutdown()

	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			s.Logger.Error("failed to shutdown Gin server", zap.Error(err))
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
		}
	}

	return errors.Join(errs...)
}
