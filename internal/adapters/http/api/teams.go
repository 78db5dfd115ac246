package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/model"
)

// TeamsDependencies defines the interface for team reads.
type TeamsDependencies interface {
	Snapshot(ctx context.Context, teamID int) (model.TeamSnapshot, error)
	Snapshots(ctx context.Context) ([]model.TeamSnapshot, error)
	Projection(ctx context.Context, teamID int) (model.Projection, error)
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamsDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleListTeams handles GET /teams requests.
func (h *TeamsHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_teams"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snaps, err := h.deps.Snapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if snaps == nil {
		snaps = []model.TeamSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// HandleGetTeam handles GET /teams/{team_id} requests.
func (h *TeamsHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/teams/")
	id, err := strconv.Atoi(path)
	if path == "" || err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	snap, err := h.deps.Snapshot(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	resp := teamResponse{TeamSnapshot: snap}
	p, err := h.deps.Projection(r.Context(), id)
	switch {
	case err == nil:
		resp.Projection = &p
	case !errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
