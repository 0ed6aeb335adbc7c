// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/catalog"
	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
	"github.com/okian/discmatch/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Started() bool
	Status(ctx context.Context) catalog.Status

	Catalog(ctx context.Context, dataset model.DatasetID) (types.CatalogPage, error)
	Search(ctx context.Context, dataset model.DatasetID, q string, limit int) (types.CatalogPage, error)
	Match(ctx context.Context, q types.MatchQuery) (types.MatchResponse, error)

	Refresh(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error)
	EnqueueRefresh(ctx context.Context, dataset model.DatasetID, reason string) (types.RefreshResult, error)
	Invalidate(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statusHandler  *StatusHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	matchHandler   *MatchHandler
	refreshHandler *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statusHandler:  NewStatusHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		catalogHandler: NewCatalogHandler(deps),
		matchHandler:   NewMatchHandler(deps),
		refreshHandler: NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /catalog/{dataset}", MetricsMiddleware(s.catalogHandler.HandleGetCatalog, "catalog"))
	mux.HandleFunc("GET /match", MetricsMiddleware(s.matchHandler.HandleGetMatch, "match"))
	mux.HandleFunc("POST /match", MetricsMiddleware(s.matchHandler.HandlePostMatch, "match"))
	mux.HandleFunc("POST /refresh/{dataset}", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))

	logger.Get().Named("api").Debug(ctx, "api routes registered")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// datasetParam reads the {dataset} path value.
func datasetParam(r *http.Request, op string) (model.DatasetID, error) {
	d, err := model.ParseDatasetID(r.PathValue("dataset"))
	if err != nil {
		return "", WrapKind(op, catalog.ErrUnknownDataset, err)
	}
	return d, nil
}
