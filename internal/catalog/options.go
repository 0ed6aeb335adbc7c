package catalog

import (
	"time"

	"github.com/okian/discmatch/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithStaticFallback enables or disables the compiled-in catalog. When
// disabled the static tier yields empty snapshots.
func WithStaticFallback(enabled bool) Option {
	return func(o *Orchestrator) {
		o.staticEnabled = enabled
	}
}

// WithRetryInterval sets how long a dataset that failed remotely keeps its
// active snapshot before the remote is tried again. Zero retries on every
// call.
func WithRetryInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retryAfter = d
		}
	}
}

// WithClock sets the time source used to stamp static snapshots.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}
