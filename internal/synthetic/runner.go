package synthetic

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/pkg/logger"
)

// Output names where a run writes and what it checks against.
type Output struct {
	GamesFile     string        // schedule or results CSV; empty skips it
	MatchupsFile  string        // probability table CSV; empty skips it
	VerifyURL     string        // base URL of a server to compare with; empty skips it
	VerifyTimeout time.Duration // request timeout for VerifyURL
	Tolerance     float64       // allowed wins between mean and expectation
}

// Report summarizes one run.
type Report struct {
	Season     *Season       `json:"season"`
	Games      int           `json:"games"`
	Standings  []Standing    `json:"standings"`
	Deviations []Deviation   `json:"deviations,omitempty"`
	Took       time.Duration `json:"took"`
}

// Run generates a season, checks its balance, writes the requested files
// and, when VerifyURL is set, compares the served projections with the
// analytic expectation.
func Run(ctx context.Context, cfg *Config, out Output) (*Report, error) {
	start := time.Now()
	log := logger.Get().Named("synthetic")

	season, err := Generate(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate season: %w", err)
	}
	if err := VerifyBalance(season.Matchups); err != nil {
		return nil, err
	}
	log.Info(ctx, "season generated",
		logger.Int("season", season.Year),
		logger.Int("teams", len(season.Teams)),
		logger.Int("games", len(season.Games)),
		logger.Bool("played", cfg.Played))

	if out.GamesFile != "" {
		if err := repository.SaveFile(out.GamesFile, season.Games, repository.WriteGames); err != nil {
			return nil, err
		}
		log.Info(ctx, "games written", logger.String("path", out.GamesFile))
	}
	if out.MatchupsFile != "" {
		if err := repository.SaveFile(out.MatchupsFile, season.Matchups, repository.WriteMatchups); err != nil {
			return nil, err
		}
		log.Info(ctx, "probabilities written", logger.String("path", out.MatchupsFile))
	}

	report := &Report{
		Season:    season,
		Games:     len(season.Games),
		Standings: ExpectedWins(season.Matchups),
	}
	if out.VerifyURL != "" {
		tolerance := out.Tolerance
		if tolerance <= 0 {
			tolerance = DefaultTolerance
		}
		projections, err := NewClient(out.VerifyURL, out.VerifyTimeout).Projections(ctx, len(season.Teams))
		if err != nil {
			return report, err
		}
		report.Deviations, err = Compare(report.Standings, projections, tolerance)
		for _, d := range report.Deviations {
			log.Warn(ctx, "projection deviates",
				logger.Int("team_id", d.TeamID),
				logger.Float64("expected", d.Expected),
				logger.Float64("mean", d.Mean))
		}
		if err != nil {
			report.Took = time.Since(start)
			return report, err
		}
		log.Info(ctx, "served projections match expectation",
			logger.Int("teams", len(projections)),
			logger.Float64("tolerance", tolerance))
	}
	report.Took = time.Since(start)
	return report, nil
}
