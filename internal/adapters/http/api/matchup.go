package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/bullpen/internal/domain/model"
)

// MatchupQuery describes a hypothetical game. Zero environment fields fall
// back to league defaults.
type MatchupQuery struct {
	HomeTeam    int
	AwayTeam    int
	Temperature int
	WindSpeed   int
	VenueID     int
}

// MatchupResult is the predicted outcome of a MatchupQuery.
type MatchupResult struct {
	HomeTeam    int     `json:"home_team"`
	AwayTeam    int     `json:"away_team"`
	HomeName    string  `json:"home_name"`
	AwayName    string  `json:"away_name"`
	HomeWinProb float64 `json:"home_win_prob"`
	AsOf        string  `json:"as_of,omitempty"`
}

// MatchupDependencies defines the interface for matchup scoring.
type MatchupDependencies interface {
	PredictMatchup(ctx context.Context, q MatchupQuery) (MatchupResult, error)
}

// MatchupHandler handles matchup requests.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleGetMatchup handles GET /matchup?home=&away=[&temp=&wind=&venue=].
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matchup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseMatchupQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.PredictMatchup(r.Context(), q)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parseMatchupQuery(r *http.Request) (MatchupQuery, error) {
	values := r.URL.Query()
	q := MatchupQuery{Temperature: model.DefaultTemperature}

	fields := []struct {
		name     string
		dst      *int
		required bool
	}{
		{"home", &q.HomeTeam, true},
		{"away", &q.AwayTeam, true},
		{"temp", &q.Temperature, false},
		{"wind", &q.WindSpeed, false},
		{"venue", &q.VenueID, false},
	}
	for _, f := range fields {
		raw := values.Get(f.name)
		if raw == "" {
			if f.required {
				return MatchupQuery{}, fmt.Errorf("missing %s", f.name)
			}
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return MatchupQuery{}, fmt.Errorf("invalid %s", f.name)
		}
		*f.dst = v
	}
	switch {
	case q.HomeTeam <= 0 || q.AwayTeam <= 0:
		return MatchupQuery{}, errors.New("team ids must be positive")
	case q.HomeTeam == q.AwayTeam:
		return MatchupQuery{}, errors.New("home and away must differ")
	case q.WindSpeed < 0:
		return MatchupQuery{}, errors.New("invalid wind")
	}
	return q, nil
}
