package logger

import (
	"context"

	"go.mongodb.org/mongo-driver/event"
	"go.uber.org/zap"
)

// NewMongoMonitor logs document store commands the way GormLogger logs SQL:
// failures and slow commands always, everything else only at debug level.
func NewMongoMonitor(zapLogger *zap.Logger, slowQuerySeconds float64) *event.CommandMonitor {
	threshold := slowThreshold(slowQuerySeconds)
	base := zapLogger.With(zap.String("store", "mongo"))

	fields := func(e event.CommandFinishedEvent) []zap.Field {
		return []zap.Field{
			zap.String("command", e.CommandName),
			zap.String("database", e.DatabaseName),
			zap.Duration("elapsed", e.Duration),
		}
	}

	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			logger := WithContext(ctx, base)
			if threshold != 0 && e.Duration > threshold {
				logger.Warn("mongo slow command", append(fields(e.CommandFinishedEvent), zap.Duration("threshold", threshold))...)
				return
			}
			logger.Debug("mongo command", fields(e.CommandFinishedEvent)...)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			WithContext(ctx, base).Warn("mongo command failed",
				append(fields(e.CommandFinishedEvent), zap.String("failure", e.Failure))...)
		},
	}
}
