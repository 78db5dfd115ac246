package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/bullpen/internal/domain/model"
)

// ProjectionsDependencies defines the interface for projection reads.
type ProjectionsDependencies interface {
	TopN(ctx context.Context, n int) ([]model.Projection, error)
}

// ProjectionsHandler handles projection requests.
type ProjectionsHandler struct {
	deps     ProjectionsDependencies
	maxLimit int
}

// NewProjectionsHandler creates a new projections handler.
func NewProjectionsHandler(deps ProjectionsDependencies, maxLimit int) *ProjectionsHandler {
	return &ProjectionsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetProjections handles GET /projections?limit=N. Without a limit
// every projected team is returned, up to the configured maximum.
func (h *ProjectionsHandler) HandleGetProjections(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_projections"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	projections, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, projections)
}
