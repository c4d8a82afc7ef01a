package infrastructure

import (
	"context"
	"fmt"

	"user-crud-service/internal/adapter/db/mongodb"
	"user-crud-service/internal/config"
	"user-crud-service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoRepository connects to the document store, verifies the primary answers,
// ensures the unique email index and returns the repository.
func NewMongoRepository(ctx context.Context, cfg *config.Config, l *zap.Logger) (*mongodb.UserRepoMongo, *mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URL).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize).
		SetServerSelectionTimeout(cfg.Store.Timeout).
		SetConnectTimeout(cfg.Store.Timeout).
		SetMonitor(logger.NewMongoMonitor(l, cfg.Logger.SlowQuerySeconds))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create document store client: %w", err)
	}

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	repo := mongodb.NewUserRepoMongo(coll, l, cfg.Store.Timeout)

	if err := repo.Ping(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to reach document store: %w", err)
	}

	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	l.Info("document store connected successfully",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection),
		zap.Uint64("max_pool_size", cfg.Mongo.MaxPoolSize),
	)

	return repo, client, nil
}

// CloseMongo disconnects the client, waiting for in-use connections until ctx expires.
func CloseMongo(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect document store: %w", err)
	}
	return nil
}
