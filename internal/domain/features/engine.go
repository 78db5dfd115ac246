// Package features turns a chronological game log into point-in-time feature
// rows.
//
// The Engine reads each game's features from tracker state before applying
// the game's result, so a row never sees its own outcome. Team state resets
// when the season changes; pitcher state spans a career.
package features

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/bullpen/internal/domain/dedupe"
	"github.com/okian/bullpen/internal/domain/league"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/internal/domain/tracker"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// Stats summarizes the engine's progress.
type Stats struct {
	Season    int       `json:"season"`
	LastDate  time.Time `json:"last_date"`
	Processed int       `json:"processed"`
	Degraded  int       `json:"degraded"`
	Skipped   int       `json:"skipped"`
	Teams     int       `json:"teams"`
	Pitchers  int       `json:"pitchers"`
}

// Engine owns every tracker. It is not safe for concurrent use; run separate
// engines for independent datasets.
type Engine struct {
	season   int
	lastDate time.Time

	teams       map[int]*tracker.Team
	pitchers    map[int]*tracker.Pitcher
	lastStarter map[int]int // team id -> most recent starter id

	deduper dedupe.Deduper
	parks   ParkFactors
	logger  logger.Logger

	defaultRest int
	neutralERA  float64
	neutralWHIP float64
	skipMissing bool
	gameTypes   []string

	processed int
	degraded  int
	skipped   int
}

// New returns an engine with no history.
func New(opts ...Option) *Engine {
	e := &Engine{
		teams:       make(map[int]*tracker.Team),
		pitchers:    make(map[int]*tracker.Pitcher),
		lastStarter: make(map[int]int),
		defaultRest: tracker.DefaultRestDays,
		neutralERA:  tracker.NeutralERA,
		neutralWHIP: tracker.NeutralWHIP,
		gameTypes:   league.DefaultGameTypes(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.deduper == nil {
		e.deduper = dedupe.NewInMemoryDeduper()
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("features")
	}
	return e
}

// Prepare keeps final games of eligible types and sorts them by date, then
// id. Games without a type are kept.
func (e *Engine) Prepare(games []model.Game) []model.Game {
	types := league.GameTypeSet(e.gameTypes)
	out := make([]model.Game, 0, len(games))
	for _, g := range games {
		if !g.IsFinal() {
			continue
		}
		if g.Type != "" && !types[g.Type] {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := model.CivilDate(out[i].Date), model.CivilDate(out[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Run processes games in order. details may be nil or miss entries; each
// missing box score is handled by the detail policy. Per-game failures are
// logged and counted, never returned. On cancellation Run returns the rows
// emitted so far with the context error.
func (e *Engine) Run(ctx context.Context, games []model.Game, details map[int]*model.BoxScore) ([]model.FeatureRow, error) {
	rows := make([]model.FeatureRow, 0, len(games))
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		row, err := e.Process(ctx, g, details[g.ID])
		if err != nil {
			e.logger.Warn(ctx, "game skipped",
				logger.Int("game_id", g.ID),
				logger.String("reason", skipReason(err)),
				logger.Error(err))
			continue
		}
		rows = append(rows, row)
	}
	e.logger.Info(ctx, "feature run finished",
		logger.Int("rows", len(rows)),
		logger.Int("input", len(games)),
		logger.Int("season", e.season))
	return rows, nil
}

// Process emits the pre-game row for g and then applies g's result. box may be
// nil. A returned error means g was rejected and left no trace in state.
func (e *Engine) Process(ctx context.Context, g model.Game, box *model.BoxScore) (model.FeatureRow, error) {
	if err := e.admit(ctx, g, box); err != nil {
		e.skipped++
		metrics.RecordGameSkipped(skipReason(err))
		return model.FeatureRow{}, err
	}

	season := g.SeasonOf()
	if season != e.season {
		e.resetSeason(ctx, season)
	}
	home := e.team(g.HomeTeam)
	away := e.team(g.AwayTeam)

	row := e.Features(g, box)

	date := model.CivilDate(g.Date)
	homeWon := g.HomeWon()
	var homeLine, awayLine model.BattingLine
	if box != nil {
		homeLine, awayLine = box.Home.Batting, box.Away.Batting
	}
	home.RecordGame(homeLine, g.HomeScore, g.AwayScore, date, homeWon)
	away.RecordGame(awayLine, g.AwayScore, g.HomeScore, date, !homeWon)
	if box != nil {
		e.recordStarter(g.HomeTeam, box.Home)
		e.recordStarter(g.AwayTeam, box.Away)
	}

	e.lastDate = date
	e.processed++
	if row.Degraded {
		e.degraded++
	}
	metrics.RecordGameProcessed()
	metrics.RecordFeatureRow()
	metrics.UpdateTrackedEntities(len(e.teams), len(e.pitchers))
	return row, nil
}

// admit validates g against the engine's ordering and detail policy and
// records its id.
func (e *Engine) admit(ctx context.Context, g model.Game, box *model.BoxScore) error {
	if !g.IsFinal() {
		return fmt.Errorf("game %d status %q: %w", g.ID, g.Status, ErrNotFinal)
	}
	if g.ID <= 0 || g.HomeTeam <= 0 || g.AwayTeam <= 0 || g.HomeTeam == g.AwayTeam ||
		g.Date.IsZero() || g.HomeScore < 0 || g.AwayScore < 0 {
		return fmt.Errorf("game %d: %w", g.ID, ErrInvalidGame)
	}
	if g.Season != 0 && g.Season != g.Date.Year() {
		return fmt.Errorf("game %d season %d dated %s: %w",
			g.ID, g.Season, g.Date.Format(model.DateLayout), ErrSeasonMismatch)
	}
	date := model.CivilDate(g.Date)
	if g.SeasonOf() < e.season || (!e.lastDate.IsZero() && date.Before(e.lastDate)) {
		return fmt.Errorf("game %d dated %s after %s: %w",
			g.ID, date.Format(model.DateLayout), e.lastDate.Format(model.DateLayout), ErrOutOfOrder)
	}
	if box != nil && box.GameID != 0 && box.GameID != g.ID {
		return fmt.Errorf("game %d got box score %d: %w", g.ID, box.GameID, ErrDetailMismatch)
	}
	if box == nil && e.skipMissing {
		return fmt.Errorf("game %d: %w", g.ID, ErrDetailUnavailable)
	}
	if e.deduper.SeenAndRecord(ctx, g.ID) {
		return fmt.Errorf("game %d: %w", g.ID, ErrDuplicateGame)
	}
	return nil
}

// Features computes g's row from current state without changing it. Teams
// unseen in g's season report the empty baseline.
func (e *Engine) Features(g model.Game, box *model.BoxScore) model.FeatureRow {
	date := model.CivilDate(g.Date)
	season := g.SeasonOf()
	row := model.FeatureRow{
		GameID:      g.ID,
		Season:      season,
		Date:        date,
		HomeTeam:    g.HomeTeam,
		AwayTeam:    g.AwayTeam,
		Environment: model.DefaultEnvironment(g.VenueID),
		ParkFactor:  e.parks.Factor(g.VenueID),
		HomeScore:   g.HomeScore,
		AwayScore:   g.AwayScore,
		HomeWin:     g.HomeWon(),
	}

	var homeSide, awaySide model.SideDetail
	if box != nil {
		homeSide, awaySide = box.Home, box.Away
		row.Environment = box.Environment
		if row.Environment.VenueID == 0 {
			row.Environment.VenueID = g.VenueID
		}
		if row.Environment.Condition == "" {
			row.Environment.Condition = model.DefaultCondition
		}
		row.ParkFactor = e.parks.Factor(row.Environment.VenueID)
	} else {
		row.Degraded = true
	}

	row.Home = e.sideFeatures(season, g.HomeTeam, date, starterID(homeSide))
	row.Away = e.sideFeatures(season, g.AwayTeam, date, starterID(awaySide))
	return row
}

func (e *Engine) sideFeatures(season, teamID int, date time.Time, pitcherID int) model.SideFeatures {
	t, ok := e.teams[teamID]
	if !ok || season != e.season {
		t = tracker.NewTeam(tracker.WithDefaultRest(e.defaultRest))
	}
	f := t.Features()
	m := t.Momentum()
	p := e.pitcherFeatures(pitcherID)
	return model.SideFeatures{
		Rest:        t.DaysRest(date),
		GamesLast7:  t.Fatigue(date),
		WinsLast5:   m.Last5,
		WinsLast10:  m.Last10,
		WinPct:      f.WinPct,
		OPS:         f.OPS,
		AVG:         f.AVG,
		OBP:         f.OBP,
		SLG:         f.SLG,
		RunDiff:     f.RunDiff,
		StarterID:   pitcherID,
		StarterERA:  p.ERA,
		StarterWHIP: p.WHIP,
	}
}

func (e *Engine) pitcherFeatures(id int) tracker.PitcherFeatures {
	if p, ok := e.pitchers[id]; ok && id != 0 {
		return p.Features()
	}
	return tracker.PitcherFeatures{ERA: e.neutralERA, WHIP: e.neutralWHIP}
}

// starterID is the probable pitcher, or the first pitcher with innings when
// no probable was announced.
func starterID(side model.SideDetail) int {
	if side.ProbablePitcher != 0 {
		return side.ProbablePitcher
	}
	if s, ok := side.Starter(); ok {
		return s.ID
	}
	return 0
}

func (e *Engine) recordStarter(teamID int, side model.SideDetail) {
	s, ok := side.Starter()
	if !ok || s.ID == 0 {
		return
	}
	p, ok := e.pitchers[s.ID]
	if !ok {
		p = tracker.NewPitcher(tracker.WithNeutral(e.neutralERA, e.neutralWHIP))
		e.pitchers[s.ID] = p
	}
	p.RecordStart(s.Line)
	e.lastStarter[teamID] = s.ID
}

func (e *Engine) team(id int) *tracker.Team {
	t, ok := e.teams[id]
	if !ok {
		t = tracker.NewTeam(tracker.WithDefaultRest(e.defaultRest))
		e.teams[id] = t
	}
	return t
}

func (e *Engine) resetSeason(ctx context.Context, season int) {
	if e.season != 0 {
		e.logger.Info(ctx, "season boundary, team state reset",
			logger.Int("from", e.season),
			logger.Int("to", season),
			logger.Int("teams", len(e.teams)))
		metrics.RecordSeasonReset()
	}
	e.season = season
	e.teams = make(map[int]*tracker.Team)
	e.lastStarter = make(map[int]int)
}

// Reset drops all state, pitchers and seen game ids included.
func (e *Engine) Reset(ctx context.Context) {
	e.season = 0
	e.lastDate = time.Time{}
	e.teams = make(map[int]*tracker.Team)
	e.pitchers = make(map[int]*tracker.Pitcher)
	e.lastStarter = make(map[int]int)
	e.deduper.Reset(ctx)
	e.processed, e.degraded, e.skipped = 0, 0, 0
}

// Snapshots reports every team of the current season as of the day after the
// last processed game, ordered by team id.
func (e *Engine) Snapshots() []model.TeamSnapshot {
	ids := make([]int, 0, len(e.teams))
	for id := range e.teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	asOf := e.lastDate
	if !asOf.IsZero() {
		asOf = asOf.AddDate(0, 0, 1)
	}
	out := make([]model.TeamSnapshot, 0, len(ids))
	for _, id := range ids {
		t := e.teams[id]
		f := t.Features()
		m := t.Momentum()
		out = append(out, model.TeamSnapshot{
			TeamID:          id,
			Name:            league.TeamName(id),
			Season:          e.season,
			AsOf:            asOf,
			GamesPlayed:     t.GamesPlayed(),
			Wins:            t.Wins(),
			WinPct:          f.WinPct,
			OPS:             f.OPS,
			AVG:             f.AVG,
			RunDiff:         f.RunDiff,
			WinsLast5:       m.Last5,
			WinsLast10:      m.Last10,
			GamesLast7:      t.Fatigue(asOf),
			LastStarterWHIP: e.pitcherFeatures(e.lastStarter[id]).WHIP,
		})
	}
	return out
}

// Stats returns counters for the engine's lifetime.
func (e *Engine) Stats() Stats {
	return Stats{
		Season:    e.season,
		LastDate:  e.lastDate,
		Processed: e.processed,
		Degraded:  e.degraded,
		Skipped:   e.skipped,
		Teams:     len(e.teams),
		Pitchers:  len(e.pitchers),
	}
}
