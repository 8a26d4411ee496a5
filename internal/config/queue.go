package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// QueueConfig tunes the worker runtime and maintenance sweeps.
type QueueConfig struct {
	MaxWorkers       int           `env:"MAX_WORKERS,default=10"`
	BatchSize        int           `env:"BATCH_SIZE,default=5"`
	PollInterval     time.Duration `env:"POLL_INTERVAL,default=1s"`
	MaxPollInterval  time.Duration `env:"MAX_POLL_INTERVAL,default=60s"`
	JanitorInterval  time.Duration `env:"JANITOR_INTERVAL,default=30s"`
	ReclaimThreshold time.Duration `env:"RECLAIM_THRESHOLD,default=10m"`
	RetentionDays    int           `env:"RETENTION_DAYS,default=30"`
}

func LoadQueueConfigFromEnv(ctx context.Context) (*QueueConfig, error) {
	var cfg QueueConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process queue config: %w", err)
	}
	if cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("MAX_WORKERS must be positive")
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive")
	}
	if cfg.ReclaimThreshold <= 0 {
		return nil, fmt.Errorf("RECLAIM_THRESHOLD must be positive")
	}
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be at least 1")
	}
	return &cfg, nil
}
