package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/okian/bullpen/internal/synthetic"
	"github.com/okian/bullpen/pkg/logger"
)

// Default configuration constants.
const (
	defaultTimeout = 10 * time.Second
	defaultDir     = "data"
)

func main() {
	var (
		season    = flag.Int("season", synthetic.DefaultSeason, "Calendar year of the generated season")
		games     = flag.Int("games", synthetic.DefaultGamesPerTeam, "Rounds per team")
		teams     = flag.String("teams", "", "Comma-separated team ids (default: all 30 clubs)")
		seed      = flag.Uint64("seed", synthetic.DefaultSeed, "Generator seed")
		spread    = flag.Float64("spread", synthetic.DefaultSpread, "Team strength spread, in log-odds")
		homeEdge  = flag.Float64("home-edge", synthetic.DefaultHomeEdge, "Home advantage, in log-odds")
		played    = flag.Bool("played", false, "Draw final scores so the schedule can feed the features command")
		dir       = flag.String("dir", defaultDir, "Output directory")
		verifyURL = flag.String("verify", "", "Base URL of a running server whose projections to check")
		tolerance = flag.Float64("tolerance", synthetic.DefaultTolerance, "Allowed wins between served mean and expectation")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Print the expected standings as JSON")
	)
	flag.Parse()

	if err := logger.InitWithOptions(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := synthetic.NewConfig()
	cfg.Season = *season
	cfg.GamesPerTeam = *games
	cfg.Seed = *seed
	cfg.Spread = *spread
	cfg.HomeEdge = *homeEdge
	cfg.Played = *played
	if *teams != "" {
		ids, err := parseTeams(*teams)
		if err != nil {
			os.Stderr.WriteString("Invalid -teams: " + err.Error() + "\n")
			os.Exit(2)
		}
		cfg.Teams = ids
	}

	report, err := synthetic.Run(ctx, cfg, synthetic.Output{
		GamesFile:     filepath.Join(*dir, "games.csv"),
		MatchupsFile:  filepath.Join(*dir, "probabilities.csv"),
		VerifyURL:     strings.TrimRight(*verifyURL, "/"),
		VerifyTimeout: *timeout,
		Tolerance:     *tolerance,
	})
	if err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}

	if *verbose {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report.Standings)
	}
}

func parseTeams(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
