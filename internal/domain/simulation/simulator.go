// Package simulation projects season win totals by replaying a schedule of
// home-win probabilities many times.
//
// Replays are independent: replay r draws from its own PCG stream seeded with
// (seed, r), so results depend on the seed and trial count only, never on the
// number of workers.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/bullpen/internal/domain/league"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default simulator constants.
const (
	DefaultLowerPercentile = 0.10
	DefaultUpperPercentile = 0.90
	cancelCheckEvery       = 256
)

// Result is the outcome of one Simulate call.
type Result struct {
	Trials      int                `json:"trials"`
	Games       int                `json:"games"`
	Seed        uint64             `json:"seed"`
	Projections []model.Projection `json:"projections"`
}

// Simulator runs season replays. It is safe for concurrent use.
type Simulator struct {
	workers int
	seed    uint64
	lower   float64
	upper   float64
	logger  logger.Logger
}

// New creates a simulator with configuration options.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		workers: runtime.NumCPU(),
		lower:   DefaultLowerPercentile,
		upper:   DefaultUpperPercentile,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("simulation")
	}
	return s
}

// schedule is a validated matchup table with teams mapped to dense indices.
type schedule struct {
	teams []int // dense index -> team id, ascending
	home  []int
	away  []int
	prob  []float64
}

func compile(matchups []model.Matchup) (*schedule, error) {
	if len(matchups) == 0 {
		return nil, ErrEmptySchedule
	}
	index := make(map[int]int)
	for _, m := range matchups {
		if m.HomeTeam <= 0 || m.AwayTeam <= 0 || m.HomeTeam == m.AwayTeam {
			return nil, fmt.Errorf("game %d: %w", m.GameID, ErrInvalidMatchup)
		}
		if math.IsNaN(m.HomeWinProb) || m.HomeWinProb < 0 || m.HomeWinProb > 1 {
			return nil, fmt.Errorf("game %d probability %v: %w", m.GameID, m.HomeWinProb, ErrInvalidProbability)
		}
		index[m.HomeTeam] = 0
		index[m.AwayTeam] = 0
	}
	s := &schedule{
		teams: make([]int, 0, len(index)),
		home:  make([]int, len(matchups)),
		away:  make([]int, len(matchups)),
		prob:  make([]float64, len(matchups)),
	}
	for id := range index {
		s.teams = append(s.teams, id)
	}
	sort.Ints(s.teams)
	for i, id := range s.teams {
		index[id] = i
	}
	for i, m := range matchups {
		s.home[i] = index[m.HomeTeam]
		s.away[i] = index[m.AwayTeam]
		s.prob[i] = m.HomeWinProb
	}
	return s, nil
}

// replay plays the schedule once into wins, which must be zeroed. The home
// side wins iff its probability exceeds the draw, so a tie goes to the away
// side.
func (s *schedule) replay(seed uint64, r int, wins []int32) {
	rng := rand.New(rand.NewPCG(seed, uint64(r)))
	for g, p := range s.prob {
		if p > rng.Float64() {
			wins[s.home[g]]++
		} else {
			wins[s.away[g]]++
		}
	}
}

// Replay plays a single replay and returns wins per team id.
func (sim *Simulator) Replay(matchups []model.Matchup, seed uint64, r int) (map[int]int, error) {
	s, err := compile(matchups)
	if err != nil {
		return nil, err
	}
	wins := make([]int32, len(s.teams))
	s.replay(seed, r, wins)
	out := make(map[int]int, len(s.teams))
	for i, id := range s.teams {
		out[id] = int(wins[i])
	}
	return out, nil
}

// Simulate runs trials replays across the worker pool and summarizes each
// team's win distribution. Projections are ordered by mean wins descending,
// then team id.
func (sim *Simulator) Simulate(ctx context.Context, matchups []model.Matchup, trials int) (Result, error) {
	if trials < 1 {
		return Result{}, fmt.Errorf("%d trials: %w", trials, ErrInvalidTrials)
	}
	s, err := compile(matchups)
	if err != nil {
		return Result{}, err
	}
	seed := sim.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	start := time.Now()
	workers := min(sim.workers, trials)

	// totals[t*trials+r] holds team t's wins in replay r; each replay owns
	// its own cells, so workers never share a write.
	nTeams := len(s.teams)
	totals := make([]int32, nTeams*trials)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			wins := make([]int32, nTeams)
			for r := w; r < trials; r += workers {
				if (r/workers)%cancelCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				clear(wins)
				s.replay(seed, r, wins)
				for t, v := range wins {
					totals[t*trials+r] = v
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("simulation cancelled: %w", err)
	}

	projections := make([]model.Projection, 0, nTeams)
	for t, id := range s.teams {
		col := totals[t*trials : (t+1)*trials]
		var sum int64
		for _, v := range col {
			sum += int64(v)
		}
		slices.Sort(col)
		projections = append(projections, model.Projection{
			TeamID:    id,
			Name:      league.TeamName(id),
			MeanWins:  float64(sum) / float64(trials),
			LowerWins: Percentile(col, sim.lower),
			UpperWins: Percentile(col, sim.upper),
			LowerPct:  sim.lower,
			UpperPct:  sim.upper,
		})
	}
	sort.SliceStable(projections, func(i, j int) bool {
		if projections[i].MeanWins != projections[j].MeanWins {
			return projections[i].MeanWins > projections[j].MeanWins
		}
		return projections[i].TeamID < projections[j].TeamID
	})

	took := time.Since(start)
	metrics.RecordSimulation(trials, workers, float64(took.Milliseconds()))
	sim.logger.Info(ctx, "simulation finished",
		logger.Int("trials", trials),
		logger.Int("games", len(matchups)),
		logger.Int("teams", nTeams),
		logger.Int("workers", workers),
		logger.Duration("took", took))

	return Result{
		Trials:      trials,
		Games:       len(matchups),
		Seed:        seed,
		Projections: projections,
	}, nil
}
