package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
)

// ReasonAPI tags refresh jobs requested over HTTP.
const ReasonAPI = "api"

// RefreshDependencies defines the refresh operations.
type RefreshDependencies interface {
	Refresh(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error)
	EnqueueRefresh(ctx context.Context, dataset model.DatasetID, reason string) (types.RefreshResult, error)
	Invalidate(ctx context.Context, dataset model.DatasetID) (types.RefreshResult, error)
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandleRefresh handles POST /refresh/{dataset}. ?async=true queues the
// refresh and answers 202; ?invalidate=true drops the cached snapshot and
// re-sources the dataset inline; otherwise the refresh runs inline.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"

	dataset, err := datasetParam(r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}

	async, err := boolParam(r, "async")
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	invalidate, err := boolParam(r, "invalidate")
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	switch {
	case async && invalidate:
		writeError(w, r, NewKind(op, ErrBadRequest))
		return
	case invalidate:
		res, err := h.deps.Invalidate(r.Context(), dataset)
		if err != nil {
			writeError(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	case async:
		res, err := h.deps.EnqueueRefresh(r.Context(), dataset, ReasonAPI)
		if err != nil {
			writeError(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusAccepted, res)
		return
	}

	res, err := h.deps.Refresh(r.Context(), dataset)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
