package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/okian/discmatch/internal/domain/types"
)

const maxMatchBody = 64 << 10

// MatchDependencies defines the ranking operation.
type MatchDependencies interface {
	Match(ctx context.Context, q types.MatchQuery) (types.MatchResponse, error)
}

// MatchHandler handles match requests.
type MatchHandler struct {
	deps MatchDependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps MatchDependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleGetMatch handles GET /match?name=&manufacturer=.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"

	q := types.MatchQuery{
		Name:         r.URL.Query().Get("name"),
		Manufacturer: r.URL.Query().Get("manufacturer"),
	}
	h.match(w, r, op, q)
}

// HandlePostMatch handles POST /match with a MatchQuery body.
func (h *MatchHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"

	var q types.MatchQuery
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMatchBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	h.match(w, r, op, q)
}

func (h *MatchHandler) match(w http.ResponseWriter, r *http.Request, op string, q types.MatchQuery) {
	resp, err := h.deps.Match(r.Context(), q)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
