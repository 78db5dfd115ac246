// Package synthetic generates seeded league seasons: a balanced schedule,
// per-game home-win probabilities from hidden team strengths and, optionally,
// final scores drawn from those probabilities. The output feeds the feature
// pipeline and the simulator without upstream data.
package synthetic

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/bullpen/internal/domain/league"
)

// Default generator constants.
const (
	DefaultSeason       = 2025
	DefaultGamesPerTeam = 162
	DefaultSpread       = 0.35
	DefaultHomeEdge     = 0.16
	DefaultSeed         = 1
	DefaultTolerance    = 2.0
)

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid synthetic config")
	ErrUnbalanced    = errors.New("unbalanced schedule")
	ErrDeviation     = errors.New("projection deviates from expected wins")
)

// Config describes one generated season.
type Config struct {
	Season       int       // calendar year of every game
	Start        time.Time // first game day; zero means April 1 of Season
	Teams        []int     // team ids; at least two, no duplicates
	GamesPerTeam int       // rounds played; odd team counts lose one game per bye
	Spread       float64   // standard deviation of team strength, in log-odds
	HomeEdge     float64   // home advantage, in log-odds
	Seed         uint64    // same seed, same season
	Played       bool      // draw final scores from the probabilities
}

// NewConfig returns a full 30-team season with default settings.
func NewConfig() *Config {
	return &Config{
		Season:       DefaultSeason,
		Teams:        league.TeamIDs(),
		GamesPerTeam: DefaultGamesPerTeam,
		Spread:       DefaultSpread,
		HomeEdge:     DefaultHomeEdge,
		Seed:         DefaultSeed,
	}
}

// Validate checks ranges and team ids.
func (c *Config) Validate() error {
	switch {
	case c.Season < 1:
		return fmt.Errorf("%w: season %d", ErrInvalidConfig, c.Season)
	case len(c.Teams) < 2:
		return fmt.Errorf("%w: need at least two teams", ErrInvalidConfig)
	case c.GamesPerTeam < 1:
		return fmt.Errorf("%w: games_per_team must be positive", ErrInvalidConfig)
	case c.Spread < 0:
		return fmt.Errorf("%w: spread must not be negative", ErrInvalidConfig)
	case !c.Start.IsZero() && c.Start.Year() != c.Season:
		return fmt.Errorf("%w: start %s outside season %d", ErrInvalidConfig, c.Start.Format(time.DateOnly), c.Season)
	}
	seen := make(map[int]bool, len(c.Teams))
	for _, id := range c.Teams {
		if id <= 0 || seen[id] {
			return fmt.Errorf("%w: team id %d", ErrInvalidConfig, id)
		}
		seen[id] = true
	}
	return nil
}

func (c *Config) start() time.Time {
	if !c.Start.IsZero() {
		return time.Date(c.Start.Year(), c.Start.Month(), c.Start.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(c.Season, time.April, 1, 0, 0, 0, 0, time.UTC)
}
