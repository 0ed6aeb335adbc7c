package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/discmatch/internal/domain/model"
	"github.com/okian/discmatch/internal/domain/types"
)

// CatalogDependencies defines the catalog read operations.
type CatalogDependencies interface {
	Catalog(ctx context.Context, dataset model.DatasetID) (types.CatalogPage, error)
	Search(ctx context.Context, dataset model.DatasetID, q string, limit int) (types.CatalogPage, error)
}

// CatalogHandler handles catalog requests.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleGetCatalog handles GET /catalog/{dataset}. With ?q= it searches the
// catalog instead, optionally capped by ?limit=.
func (h *CatalogHandler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_catalog"

	dataset, err := datasetParam(r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	if !query.Has("q") {
		page, err := h.deps.Catalog(r.Context(), dataset)
		if err != nil {
			writeError(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, NewKind(op, ErrBadRequest))
			return
		}
	}

	page, err := h.deps.Search(r.Context(), dataset, query.Get("q"), limit)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}
