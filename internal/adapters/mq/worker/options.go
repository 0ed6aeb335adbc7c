package worker

import (
	"sync/atomic"
	"time"

	"github.com/okian/discmatch/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds a single refresh.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithObserver registers a callback for job outcomes.
func WithObserver(fn Observer) Option {
	return func(w *InMemoryWorker) {
		w.observer = fn
	}
}

func withCounter(c *atomic.Int32) Option {
	return func(w *InMemoryWorker) {
		w.busy = c
	}
}
