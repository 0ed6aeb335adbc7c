package api

import (
	"net/http"
	"time"

	"github.com/okian/discmatch/pkg/metrics"
)

// ReadinessProvider reports whether the service has finished starting.
type ReadinessProvider interface {
	Started() bool
}

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	deps ReadinessProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps ReadinessProvider) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status      string    `json:"status"`
	Initialized bool      `json:"initialized"`
	Time        time.Time `json:"time"`
}

// HandleHealth handles GET /healthz. The process is live as soon as it
// serves; initialized tells whether the catalogs have been sourced.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Initialized: h.deps.Started(),
		Time:        time.Now().UTC(),
	})
}

// HandleMetrics handles GET /metrics from the custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}
