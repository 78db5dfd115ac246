package synthetic

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/bullpen/internal/domain/league"
	"github.com/okian/bullpen/internal/domain/model"
)

// Standing is a team's analytic win expectation over a schedule.
type Standing struct {
	TeamID       int     `json:"team_id"`
	Name         string  `json:"name"`
	Games        int     `json:"games"`
	HomeGames    int     `json:"home_games"`
	ExpectedWins float64 `json:"expected_wins"`
}

// ExpectedWins sums each team's win probabilities: p for home games and
// 1-p for away games. Standings are ordered by expected wins descending,
// then team id, the order the simulator ranks projections in.
func ExpectedWins(matchups []model.Matchup) []Standing {
	byTeam := make(map[int]*Standing)
	get := func(id int) *Standing {
		s, ok := byTeam[id]
		if !ok {
			s = &Standing{TeamID: id, Name: league.TeamName(id)}
			byTeam[id] = s
		}
		return s
	}
	for _, m := range matchups {
		h, a := get(m.HomeTeam), get(m.AwayTeam)
		h.Games++
		h.HomeGames++
		h.ExpectedWins += m.HomeWinProb
		a.Games++
		a.ExpectedWins += 1 - m.HomeWinProb
	}
	out := make([]Standing, 0, len(byTeam))
	for _, s := range byTeam {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpectedWins != out[j].ExpectedWins {
			return out[i].ExpectedWins > out[j].ExpectedWins
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

// VerifyBalance checks that no team plays itself or twice on one day and
// that every team plays the same number of games, give or take one bye.
func VerifyBalance(matchups []model.Matchup) error {
	type slot struct {
		team int
		day  string
	}
	busy := make(map[slot]int)
	games := make(map[int]int)
	for _, m := range matchups {
		if m.HomeTeam == m.AwayTeam {
			return fmt.Errorf("%w: game %d pits team %d against itself", ErrUnbalanced, m.GameID, m.HomeTeam)
		}
		day := m.Date.Format(model.DateLayout)
		for _, team := range []int{m.HomeTeam, m.AwayTeam} {
			if other, ok := busy[slot{team, day}]; ok {
				return fmt.Errorf("%w: team %d plays games %d and %d on %s",
					ErrUnbalanced, team, other, m.GameID, day)
			}
			busy[slot{team, day}] = m.GameID
			games[team]++
		}
	}
	lo, hi := math.MaxInt, 0
	for _, n := range games {
		lo, hi = min(lo, n), max(hi, n)
	}
	if hi-lo > 1 {
		return fmt.Errorf("%w: game counts range from %d to %d", ErrUnbalanced, lo, hi)
	}
	return nil
}

// Deviation is a projection whose mean strays from its expected wins.
type Deviation struct {
	TeamID   int     `json:"team_id"`
	Expected float64 `json:"expected"`
	Mean     float64 `json:"mean"`
}

// Compare checks projections against standings. A team whose mean differs
// from its expectation by more than tolerance wins, or that is missing from
// the projections, is reported.
func Compare(standings []Standing, projections []model.Projection, tolerance float64) ([]Deviation, error) {
	means := make(map[int]float64, len(projections))
	for _, p := range projections {
		means[p.TeamID] = p.MeanWins
	}
	var out []Deviation
	for _, s := range standings {
		mean, ok := means[s.TeamID]
		if !ok || math.Abs(mean-s.ExpectedWins) > tolerance {
			out = append(out, Deviation{TeamID: s.TeamID, Expected: s.ExpectedWins, Mean: mean})
		}
	}
	if len(out) > 0 {
		return out, fmt.Errorf("%w: %d of %d teams", ErrDeviation, len(out), len(standings))
	}
	return nil, nil
}
