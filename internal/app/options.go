package service

import (
	"net/http"
	"time"

	"github.com/okian/discmatch/internal/config"
	"github.com/okian/discmatch/internal/ingest"
	"github.com/okian/discmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration. The defaults of config.New are
// used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			c := *cfg
			s.cfg = &c
		}
	}
}

// WithSource replaces the remote source built from the configuration.
func WithSource(src ingest.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithHTTPClient sets the client used by the remote transport.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithWorkerCount sets the number of refresh workers. It takes precedence
// over the configuration regardless of option order.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the refresh queue. It takes precedence
// over the configuration regardless of option order.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithClock sets the time source used for snapshots and jobs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
