package tracker

import (
	"math"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
)

// Default team tracker constants.
const (
	RecentWindow    = 10 // games kept for momentum and fatigue
	MomentumShort   = 5
	FatigueDays     = 7
	DefaultRestDays = 5
)

// TeamFeatures are rate stats derived from a team's season-to-date totals.
type TeamFeatures struct {
	AVG     float64 `json:"avg"`
	SLG     float64 `json:"slg"`
	OBP     float64 `json:"obp"`
	OPS     float64 `json:"ops"`
	WinPct  float64 `json:"win_pct"`
	RunDiff float64 `json:"run_diff"`
}

// Momentum counts wins in the trailing windows.
type Momentum struct {
	Last5  int `json:"wins_last_5"`
	Last10 int `json:"wins_last_10"`
}

// TeamOption configures a Team.
type TeamOption func(*Team)

// WithDefaultRest sets the rest reported before a team's first game.
func WithDefaultRest(days int) TeamOption {
	return func(t *Team) {
		if days >= 0 {
			t.defaultRest = days
		}
	}
}

// Team accumulates one team's season. It is not safe for concurrent use;
// the feature engine owns every instance.
type Team struct {
	gamesPlayed int
	wins        int
	runsScored  int
	runsAllowed int
	hits        int
	atBats      int
	walks       int
	totalBases  int
	strikeouts  int

	played   bool
	lastGame time.Time

	dates   *Window[time.Time]
	results *Window[bool]

	defaultRest int
}

// NewTeam returns an empty tracker.
func NewTeam(opts ...TeamOption) *Team {
	t := &Team{
		dates:       NewWindow[time.Time](RecentWindow),
		results:     NewWindow[bool](RecentWindow),
		defaultRest: DefaultRestDays,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordGame applies one finished game. A zero date is stored but ignored by
// Fatigue and DaysRest.
func (t *Team) RecordGame(line model.BattingLine, runsScored, runsAllowed int, date time.Time, won bool) {
	t.gamesPlayed++
	if won {
		t.wins++
	}
	t.runsScored += nonNegative(runsScored)
	t.runsAllowed += nonNegative(runsAllowed)

	h := nonNegative(line.Hits)
	d := nonNegative(line.Doubles)
	tr := nonNegative(line.Triples)
	hr := nonNegative(line.HomeRuns)
	t.hits += h
	t.atBats += nonNegative(line.AtBats)
	t.walks += nonNegative(line.Walks)
	t.strikeouts += nonNegative(line.Strikeouts)
	singles := nonNegative(h - (d + tr + hr))
	t.totalBases += singles + 2*d + 3*tr + 4*hr

	date = model.CivilDate(date)
	t.played = true
	t.lastGame = date
	t.dates.Push(date)
	t.results.Push(won)
}

// Features derives rate stats. Empty denominators yield zero.
func (t *Team) Features() TeamFeatures {
	avg := ratio(t.hits, t.atBats)
	slg := ratio(t.totalBases, t.atBats)
	obp := ratio(t.hits+t.walks, t.atBats+t.walks)
	runDiff := float64(t.runsScored-t.runsAllowed) / float64(max(1, t.gamesPlayed))
	return TeamFeatures{
		AVG:     Round(avg, RatePlaces),
		SLG:     Round(slg, RatePlaces),
		OBP:     Round(obp, RatePlaces),
		OPS:     Round(obp+slg, RatePlaces),
		WinPct:  Round(ratio(t.wins, t.gamesPlayed), RatePlaces),
		RunDiff: Round(runDiff, RunDiffPlaces),
	}
}

// Momentum sums wins over the last 10 and last 5 recorded games.
func (t *Team) Momentum() Momentum {
	var m Momentum
	t.results.Tail(RecentWindow, func(won bool) {
		if won {
			m.Last10++
		}
	})
	t.results.Tail(MomentumShort, func(won bool) {
		if won {
			m.Last5++
		}
	})
	return m
}

// Fatigue counts recent games played strictly before asOf and no more than
// seven days earlier. The result never exceeds FatigueDays.
func (t *Team) Fatigue(asOf time.Time) int {
	if asOf.IsZero() {
		return 0
	}
	count := 0
	t.dates.Tail(RecentWindow, func(d time.Time) {
		if d.IsZero() {
			return
		}
		if days := DaysBetween(d, asOf); days > 0 && days <= FatigueDays {
			count++
		}
	})
	return min(count, FatigueDays)
}

// DaysRest is the number of idle days before asOf: zero for back-to-back
// days, the configured default before the first game.
func (t *Team) DaysRest(asOf time.Time) int {
	if !t.played {
		return t.defaultRest
	}
	if t.lastGame.IsZero() || asOf.IsZero() {
		return 0
	}
	return max(0, DaysBetween(t.lastGame, asOf)-1)
}

// GamesPlayed returns the number of recorded games.
func (t *Team) GamesPlayed() int { return t.gamesPlayed }

// Wins returns the number of recorded wins.
func (t *Team) Wins() int { return t.wins }

// LastGame returns the date of the most recent game, zero if none.
func (t *Team) LastGame() time.Time { return t.lastGame }

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	hours := model.CivilDate(b).Sub(model.CivilDate(a)).Hours()
	return int(math.Round(hours / 24))
}
