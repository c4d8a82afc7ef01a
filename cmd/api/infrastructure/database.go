package infrastructure

import (
	"context"
	"fmt"
	"time"

	"user-crud-service/internal/adapter/db/postgres"
	"user-crud-service/internal/config"
	"user-crud-service/pkg/logger"

	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const connMaxLifetime = 30 * time.Minute

// NewDatabase opens the PostgreSQL pool through GORM and logs queries with zap.
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	db, err := gorm.Open(pgdriver.Open(cfg.DB.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	l.Info("database connected successfully",
		zap.String("host", cfg.DB.Host),
		zap.String("database", cfg.DB.Name),
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
	)

	return db, nil
}

// NewPostgresRepository opens the database, migrates the users table and returns the repository.
func NewPostgresRepository(ctx context.Context, cfg *config.Config, l *zap.Logger) (*postgres.UserRepoPG, *gorm.DB, error) {
	db, err := NewDatabase(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	repo := postgres.NewUserRepoPG(db, l, cfg.Store.Timeout)
	if err := repo.AutoMigrate(ctx); err != nil {
		_ = CloseDatabase(db)
		return nil, nil, fmt.Errorf("failed to migrate users table: %w", err)
	}

	return repo, db, nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
