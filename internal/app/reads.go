package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/bullpen/internal/adapters/http/api"
	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/league"
	"github.com/okian/bullpen/internal/domain/model"
)

// TopN returns the top N projections.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Projection, error) {
	return s.store.TopN(ctx, n)
}

// Projection returns one team's projection.
func (s *Service) Projection(ctx context.Context, teamID int) (model.Projection, error) {
	return s.store.Projection(ctx, teamID)
}

// Snapshot returns one team's latest state.
func (s *Service) Snapshot(ctx context.Context, teamID int) (model.TeamSnapshot, error) {
	return s.store.Snapshot(ctx, teamID)
}

// Snapshots returns every team's latest state.
func (s *Service) Snapshots(ctx context.Context) ([]model.TeamSnapshot, error) {
	return s.store.Snapshots(ctx)
}

// Count returns the number of projected teams.
func (s *Service) Count(ctx context.Context) int {
	return s.store.Count(ctx)
}

// PredictMatchup scores a hypothetical game between two tracked teams from
// their latest snapshots.
func (s *Service) PredictMatchup(ctx context.Context, q api.MatchupQuery) (api.MatchupResult, error) {
	home, err := s.snapshotFor(ctx, q.HomeTeam)
	if err != nil {
		return api.MatchupResult{}, err
	}
	away, err := s.snapshotFor(ctx, q.AwayTeam)
	if err != nil {
		return api.MatchupResult{}, err
	}

	env := model.DefaultEnvironment(q.VenueID)
	if q.Temperature != 0 {
		env.Temperature = q.Temperature
	}
	env.WindSpeed = q.WindSpeed

	v := features.SnapshotVector(home, away, env, s.parks.Factor(q.VenueID))
	prob, err := s.predictor.PredictHomeWin(ctx, v)
	if err != nil {
		return api.MatchupResult{}, fmt.Errorf("predict matchup: %w", err)
	}

	res := api.MatchupResult{
		HomeTeam:    q.HomeTeam,
		AwayTeam:    q.AwayTeam,
		HomeName:    league.TeamName(q.HomeTeam),
		AwayName:    league.TeamName(q.AwayTeam),
		HomeWinProb: prob,
	}
	asOf := home.AsOf
	if away.AsOf.After(asOf) {
		asOf = away.AsOf
	}
	if !asOf.IsZero() {
		res.AsOf = asOf.Format(model.DateLayout)
	}
	return res, nil
}

func (s *Service) snapshotFor(ctx context.Context, teamID int) (model.TeamSnapshot, error) {
	snap, err := s.store.Snapshot(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.TeamSnapshot{}, fmt.Errorf("team %d: %w", teamID, api.ErrUnknownTeam)
	}
	return snap, err
}
