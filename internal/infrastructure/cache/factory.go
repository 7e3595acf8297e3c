package cache

import (
	"fmt"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LeaseFactory creates leases based on configuration
type LeaseFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LeaseFactoryOption is a functional option for configuring the factory
type LeaseFactoryOption func(*LeaseFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LeaseFactoryOption {
	return func(f *LeaseFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lease
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) LeaseFactoryOption {
	return func(f *LeaseFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLeaseFactory creates a new factory
func NewLeaseFactory(cfg config.RedisConfig, opts ...LeaseFactoryOption) *LeaseFactory {
	f := &LeaseFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLease returns a Redis lease when Redis is enabled and reachable. A
// disabled Redis yields an in-memory lease; an unreachable one falls back to
// it only when allowed.
func (f *LeaseFactory) CreateLease() (Lease, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory sweep lease")
		return NewInMemoryLease(), nil
	}

	lease, err := NewRedisLease(f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis sweep lease", zap.String("addr", f.redisConfig.Addr()))
		return lease, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for sweep lease but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory sweep lease. "+
		"Several instances may run timed sweeps at once.",
		zap.Error(err),
	)
	return NewInMemoryLease(), nil
}
