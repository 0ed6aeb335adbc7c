package ingest

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/okian/discmatch/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithNumberMode overrides the source's native number parsing.
func WithNumberMode(m NumberMode) Option {
	return func(p *Pipeline) {
		p.numbers = m
	}
}

// WithValidator replaces the record validator.
func WithValidator(v *validator.Validate) Option {
	return func(p *Pipeline) {
		if v != nil {
			p.validate = v
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}
