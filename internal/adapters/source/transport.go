// Package source implements remote spreadsheet transports feeding the
// ingestion pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/discmatch/internal/ingest"
	"github.com/okian/discmatch/pkg/logger"
	"github.com/okian/discmatch/pkg/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultRate             = rate.Limit(2)
	defaultBurst            = 4
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenRequests = 1
	maxBodyBytes            = 8 << 20
)

// Transport performs guarded GET requests: each call waits on a token bucket,
// runs through a circuit breaker and is bounded by the client timeout.
type Transport struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger

	timeout          time.Duration
	limit            rate.Limit
	burst            int
	failureThreshold uint32
	openTimeout      time.Duration
}

// NewTransport creates a Transport. name labels logs, metrics and the breaker.
func NewTransport(name string, opts ...TransportOption) *Transport {
	t := &Transport{
		name:             name,
		timeout:          defaultTimeout,
		limit:            defaultRate,
		burst:            defaultBurst,
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		t.client = &http.Client{Timeout: t.timeout}
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("source")
	}
	t.limiter = rate.NewLimiter(t.limit, t.burst)

	threshold := t.failureThreshold
	t.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: defaultHalfOpenRequests,
		Timeout:     t.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			t.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("source", name), logger.String("from", from.String()), logger.String("to", to.String()))
		},
		// Caller cancellation says nothing about the remote's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	metrics.UpdateBreakerState(name, int(gobreaker.StateClosed))
	return t
}

// Name returns the transport name.
func (t *Transport) Name() string { return t.name }

// State returns the breaker state as text: closed, half-open or open.
func (t *Transport) State() string { return t.breaker.State().String() }

// Get fetches url and returns the body of a 2xx response. Every failure wraps
// ingest.ErrNetwork.
func (t *Transport) Get(ctx context.Context, url string) ([]byte, error) {
	// An open circuit fails without spending a limiter token.
	if t.breaker.State() == gobreaker.StateOpen {
		return nil, fmt.Errorf("%w: %s: %w", ingest.ErrNetwork, t.name, gobreaker.ErrOpenState)
	}

	waitStart := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ingest.ErrNetwork, err)
	}
	metrics.RecordRateLimitWait(float64(time.Since(waitStart).Milliseconds()))

	body, err := t.breaker.Execute(func() ([]byte, error) {
		return t.do(ctx, url)
	})
	if err != nil {
		if errors.Is(err, ingest.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ingest.ErrNetwork, t.name, err)
	}
	return body, nil
}

func (t *Transport) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ingest.ErrNetwork, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %w", ingest.ErrNetwork, &StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ingest.ErrNetwork, err)
	}
	return body, nil
}
