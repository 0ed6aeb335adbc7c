package api

import (
	"context"
	"net/http"

	"github.com/okian/discmatch/internal/catalog"
)

// StatusDependencies exposes the sourcing state of the catalogs.
type StatusDependencies interface {
	Status(ctx context.Context) catalog.Status
}

// StatusHandler handles status requests.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
