package synthetic

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/okian/bullpen/internal/domain/league"
	"github.com/okian/bullpen/internal/domain/model"
)

const (
	byeTeam     = 0
	gameIDScale = 100_000
	maxLoserRun = 6
	maxMargin   = 5
)

// Team is a generated club with its hidden strength.
type Team struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Strength float64 `json:"strength"`
}

// Season is a generated schedule. Games and Matchups are parallel and in
// date order, then game id.
type Season struct {
	Year     int             `json:"year"`
	Seed     uint64          `json:"seed"`
	Teams    []Team          `json:"teams"`
	Games    []model.Game    `json:"-"`
	Matchups []model.Matchup `json:"-"`
}

// Generate builds a season. Every round is one day on which each team plays
// once, following the circle method; with an odd team count one team rests
// per round.
func Generate(ctx context.Context, cfg *Config) (*Season, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(cfg.Season)))

	ids := append([]int(nil), cfg.Teams...)
	sort.Ints(ids)
	strength := make(map[int]float64, len(ids))
	teams := make([]Team, 0, len(ids))
	for _, id := range ids {
		s := rng.NormFloat64() * cfg.Spread
		strength[id] = s
		teams = append(teams, Team{ID: id, Name: league.TeamName(id), Strength: s})
	}

	ring := append([]int(nil), ids...)
	if len(ring)%2 == 1 {
		ring = append(ring, byeTeam)
	}
	n := len(ring)
	start := cfg.start()
	if last := start.AddDate(0, 0, cfg.GamesPerTeam-1); last.Year() != cfg.Season {
		return nil, fmt.Errorf("%w: %d rounds from %s leave season %d",
			ErrInvalidConfig, cfg.GamesPerTeam, start.Format(model.DateLayout), cfg.Season)
	}

	season := &Season{Year: cfg.Season, Seed: cfg.Seed, Teams: teams}
	gameID := cfg.Season * gameIDScale
	for round := 0; round < cfg.GamesPerTeam; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := start.AddDate(0, 0, round)
		for i := 0; i < n/2; i++ {
			a, b := ring[i], ring[n-1-i]
			if a == byeTeam || b == byeTeam {
				continue
			}
			home, away := a, b
			if (round+i)%2 == 1 {
				home, away = b, a
			}
			gameID++
			p := sigmoid(cfg.HomeEdge + strength[home] - strength[away])
			season.Matchups = append(season.Matchups, model.Matchup{
				GameID:      gameID,
				Date:        day,
				HomeTeam:    home,
				AwayTeam:    away,
				HomeWinProb: p,
			})
			season.Games = append(season.Games, game(rng, cfg, gameID, day, home, away, p))
		}
		rotate(ring)
	}
	return season, nil
}

// game builds the schedule entry, final when cfg.Played. The home side wins
// iff p exceeds the draw, the same rule the simulator replays with.
func game(rng *rand.Rand, cfg *Config, id int, day time.Time, home, away int, p float64) model.Game {
	g := model.Game{
		ID:       id,
		Date:     day,
		Season:   cfg.Season,
		Type:     league.GameTypeRegular,
		Status:   model.StatusScheduled,
		HomeTeam: home,
		AwayTeam: away,
	}
	if !cfg.Played {
		return g
	}
	loser := rng.IntN(maxLoserRun)
	winner := loser + 1 + rng.IntN(maxMargin)
	if p > rng.Float64() {
		g.HomeScore, g.AwayScore = winner, loser
	} else {
		g.HomeScore, g.AwayScore = loser, winner
	}
	g.Status = model.StatusFinal
	return g
}

// rotate advances the circle: the first slot stays, the rest turn by one.
func rotate(ring []int) {
	if len(ring) < 3 {
		return
	}
	last := ring[len(ring)-1]
	copy(ring[2:], ring[1:len(ring)-1])
	ring[1] = last
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
