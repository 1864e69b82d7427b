package service

import (
	"context"
	"log/slog"
	"time"
)

type idempotencyPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// IdempotencyJanitor periodically deletes expired idempotency records.
type IdempotencyJanitor struct {
	records  idempotencyPurger
	logger   *slog.Logger
	interval time.Duration
}

func NewIdempotencyJanitor(records idempotencyPurger, logger *slog.Logger, interval time.Duration) *IdempotencyJanitor {
	return &IdempotencyJanitor{records: records, logger: logger, interval: interval}
}

func (j *IdempotencyJanitor) Start(ctx context.Context) {
	j.logger.Info("idempotency janitor started", "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("idempotency janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *IdempotencyJanitor) sweep(ctx context.Context) {
	n, err := j.records.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("failed to purge idempotency records", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("purged expired idempotency records", "count", n)
	}
}
