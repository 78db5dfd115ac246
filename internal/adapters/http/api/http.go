// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/model"
)

// DefaultMaxLimit caps /projections when no limit is configured.
const DefaultMaxLimit = 30

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	repository.Store

	// PredictMatchup scores a hypothetical game from the latest team states.
	PredictMatchup(ctx context.Context, q MatchupQuery) (MatchupResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	projectionsHandler *ProjectionsHandler
	teamsHandler       *TeamsHandler
	matchupHandler     *MatchupHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		projectionsHandler: NewProjectionsHandler(deps, maxLimit),
		teamsHandler:       NewTeamsHandler(deps),
		matchupHandler:     NewMatchupHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/projections", MetricsMiddleware(s.projectionsHandler.HandleGetProjections, "projections"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandleListTeams, "teams"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.teamsHandler.HandleGetTeam, "team"))
	mux.HandleFunc("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
}

// teamResponse joins a team's latest state with its projection, when one
// exists.
type teamResponse struct {
	model.TeamSnapshot
	Projection *model.Projection `json:"projection,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates store and predictor misses to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrUnknownTeam)
}
