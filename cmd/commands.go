package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/config"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
)

// ErrNoInput reports that simulate found neither probabilities nor features.
var ErrNoInput = errors.New("no probabilities or features file to simulate from")

// runFeatures acquires games, builds feature rows and snapshots, and writes
// the probability table for simulate.
func runFeatures(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("features", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	from := fs.Int("from", cfg.StartSeason, "first season to acquire")
	to := fs.Int("to", cfg.EndSeason, "last season to acquire")
	gamesFile := fs.String("games", "", "read games from this CSV instead of the stats API")
	offline := fs.Bool("offline", false, "skip box-score fetches")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if *to < *from {
		return fmt.Errorf("features: %w: -to %d before -from %d", config.ErrInvalidConfig, *to, *from)
	}

	d, err := build(ctx, cfg, buildOptions{offline: *offline, csv: true})
	if err != nil {
		return err
	}
	defer d.Close()

	var games []model.Game
	if *gamesFile != "" {
		games, err = repository.LoadFile(*gamesFile, repository.ReadGames)
	} else {
		games, err = d.svc.FetchGames(ctx, *from, *to)
	}
	if err != nil {
		return fmt.Errorf("features: %w", err)
	}

	report, err := d.svc.BuildFeatures(ctx, games)
	if err != nil {
		return err
	}
	matchups, err := d.svc.Predict(ctx, report.Rows)
	if err != nil {
		return err
	}
	probPath := cfg.Path(cfg.ProbabilitiesFile)
	if err := repository.SaveFile(probPath, matchups, repository.WriteMatchups); err != nil {
		return fmt.Errorf("write probabilities: %w", err)
	}

	fmt.Fprintf(stdout, "run %s: %d games, %d rows, %d teams, %d detail failures\n",
		report.RunID, report.Games, len(report.Rows), len(report.Snapshots), report.DetailFailures)
	fmt.Fprintf(stdout, "features: %s\nprobabilities: %s\n", cfg.Path(cfg.FeaturesFile), probPath)
	return nil
}

// runSimulate projects a season from the probability table, predicting it
// from the features file when no table exists.
func runSimulate(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	trials := fs.Int("trials", cfg.Trials, "number of season replays")
	season := fs.Int("season", 0, "season to simulate; 0 picks the latest in the input")
	input := fs.String("input", cfg.Path(cfg.ProbabilitiesFile), "probability table CSV")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	d, err := build(ctx, cfg, buildOptions{offline: true, csv: true})
	if err != nil {
		return err
	}
	defer d.Close()

	matchups, err := loadMatchups(ctx, d, *input, cfg.Path(cfg.FeaturesFile))
	if err != nil {
		return err
	}
	matchups = seasonMatchups(matchups, *season)

	report, err := d.svc.Simulate(ctx, matchups, *trials)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	fmt.Fprintf(stdout, "run %s: season %d, %d games, %d trials, seed %d\n",
		report.RunID, report.Season, report.Result.Games, report.Result.Trials, report.Result.Seed)
	return printProjections(stdout, report.Result.Projections)
}

func loadMatchups(ctx context.Context, d *deps, probPath, featuresPath string) ([]model.Matchup, error) {
	if exists(probPath) {
		return repository.LoadFile(probPath, repository.ReadMatchups)
	}
	if !exists(featuresPath) {
		return nil, ErrNoInput
	}
	logger.Get().Info(ctx, "probability table missing; predicting from features",
		logger.String("features", featuresPath))
	rows, err := repository.LoadFile(featuresPath, repository.ReadFeatures)
	if err != nil {
		return nil, err
	}
	return d.svc.Predict(ctx, rows)
}

// seasonMatchups keeps the matchups dated in season, or in the latest dated
// year when season is zero. Undated matchups always stay.
func seasonMatchups(matchups []model.Matchup, season int) []model.Matchup {
	if season == 0 {
		for _, m := range matchups {
			if !m.Date.IsZero() {
				season = max(season, m.Date.Year())
			}
		}
		if season == 0 {
			return matchups
		}
	}
	out := matchups[:0:0]
	for _, m := range matchups {
		if m.Date.IsZero() || m.Date.Year() == season {
			out = append(out, m)
		}
	}
	return out
}

func printProjections(w io.Writer, projections []model.Projection) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tMEAN\tLOW\tHIGH")
	for i, p := range projections {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\n", i+1, p.Name, p.MeanWins, p.LowerWins, p.UpperWins)
	}
	return tw.Flush()
}
