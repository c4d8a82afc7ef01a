package server

import (
	"user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/pkg/logger"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// SetupGRPC creates the gRPC server exposing grpc.health.v1.Health for orchestrators.
// The returned health server starts out SERVING for service and the overall status.
func SetupGRPC(service string, rateLimiter *middleware.RateLimiter) (*grpc.Server, *health.Server) {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	return grpcServer, healthServer
}
