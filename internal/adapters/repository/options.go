package repository

import (
	"time"

	"github.com/okian/discmatch/pkg/logger"
)

// Option applies a configuration option to the SnapshotCache.
type Option func(*SnapshotCache)

// WithTTL sets the freshness window. Zero means every lookup refetches.
func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *SnapshotCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *SnapshotCache) {
		if l != nil {
			c.logger = l
		}
	}
}
