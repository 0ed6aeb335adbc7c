package source

import (
	"net/http"
	"time"

	"github.com/okian/discmatch/pkg/logger"
	"golang.org/x/time/rate"
)

// TransportOption applies a configuration option to the Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the HTTP client. WithTimeout is ignored when set.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithRateLimit sets the token bucket; a non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) TransportOption {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limit = rate.Inf
		} else {
			t.limit = rate.Limit(perSecond)
		}
		if burst > 0 {
			t.burst = burst
		}
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open.
func WithBreaker(failures int, open time.Duration) TransportOption {
	return func(t *Transport) {
		if failures > 0 {
			t.failureThreshold = uint32(failures)
		}
		if open > 0 {
			t.openTimeout = open
		}
	}
}

// WithTransportLogger sets the transport logger.
func WithTransportLogger(l logger.Logger) TransportOption {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}
