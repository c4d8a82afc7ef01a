package di

import (
	"context"
	"fmt"

	"user-crud-service/cmd/api/infrastructure"
	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
	redisclient "user-crud-service/pkg/redis"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// store is the repository plus the ping used by the readiness check.
type store interface {
	user.Repository
	ginhandler.Pinger
}

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB      // set when STORE_DRIVER=postgres
	Mongo         *mongo.Client // set when STORE_DRIVER=mongo
	RedisClient   *redisclient.Client
	Events        infrastructure.EventPublisher
	UserUC        user.Service
	RateLimiter   *middleware.RateLimiter
	GinHandler    *ginhandler.UserHandler
	HealthHandler *ginhandler.HealthHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	repo, err := c.openStore(ctx)
	if err != nil {
		_ = c.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	checks := map[string]ginhandler.Pinger{"store": repo}

	// Redis only backs the rate limiter
	if cfg.RateLimit.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		checks["redis"] = rdb

		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	publisher, err := infrastructure.NewEventPublisher(cfg, l)
	if err != nil {
		_ = c.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	c.Events = publisher

	c.UserUC = user.New(repo, publisher, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)
	c.HealthHandler = ginhandler.NewHealthHandler(cfg.Logger.ServiceName, checks, cfg.Store.Timeout, l)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) (store, error) {
	switch c.Config.Store.Driver {
	case config.DriverPostgres:
		repo, db, err := infrastructure.NewPostgresRepository(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		return repo, nil
	default:
		repo, client, err := infrastructure.NewMongoRepository(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize document store: %w", err)
		}
		c.Mongo = client
		return repo, nil
	}
}

// Close closes all resources held by the container
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.Events != nil {
		if err := c.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if c.Mongo != nil {
		if err := infrastructure.CloseMongo(ctx, c.Mongo); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
