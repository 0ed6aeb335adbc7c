package api

import (
	"errors"
	"net/http"

	service "github.com/okian/discmatch/internal/app"
	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/ingest"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrRateLimited  = errors.New("rate limited")
)

// Error tags a failure with the handler operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an error onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, catalog.ErrUnknownDataset):
		return http.StatusNotFound, "unknown_dataset"
	case errors.Is(err, service.ErrDiscNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ingest.ErrNetwork), errors.Is(err, ingest.ErrEmptyDataset):
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}
