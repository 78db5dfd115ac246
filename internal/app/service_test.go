package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullpen/internal/adapters/http/api"
	app "github.com/okian/bullpen/internal/app"
	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/internal/domain/predict"
	"github.com/okian/bullpen/internal/domain/simulation"
	"github.com/okian/bullpen/pkg/logger"
)

func init() {
	_ = logger.Init()
}

var errUpstream = errors.New("upstream down")

// oddFailFetcher serves box scores for even game ids only.
type oddFailFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *oddFailFetcher) BoxScore(_ context.Context, id int) (*model.BoxScore, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if id%2 == 1 {
		return nil, errUpstream
	}
	return &model.BoxScore{
		GameID:      id,
		Environment: model.Environment{VenueID: 3313, Temperature: 75, WindSpeed: 8, Condition: "Clear"},
		Home:        model.SideDetail{Batting: model.BattingLine{Hits: 9, AtBats: 34, Walks: 3}},
		Away:        model.SideDetail{Batting: model.BattingLine{Hits: 6, AtBats: 31, Walks: 2}},
	}, nil
}

type fakeSchedule struct {
	bySeason map[int][]model.Game
	fail     int
}

func (f *fakeSchedule) SeasonSchedule(_ context.Context, season int) ([]model.Game, error) {
	if season == f.fail {
		return nil, errUpstream
	}
	return f.bySeason[season], nil
}

type recordingSink struct {
	features    int
	snapshots   int
	projections int
	runIDs      []string
	gameIDs     []int
}

func (r *recordingSink) WriteFeatures(ctx context.Context, runID string, rows []model.FeatureRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.features += len(rows)
	r.runIDs = append(r.runIDs, runID)
	for _, row := range rows {
		r.gameIDs = append(r.gameIDs, row.GameID)
	}
	return nil
}

func (r *recordingSink) WriteSnapshots(_ context.Context, _ string, s []model.TeamSnapshot) error {
	r.snapshots += len(s)
	return nil
}

func (r *recordingSink) WriteProjections(_ context.Context, runID string, _ int, p []model.Projection) error {
	r.projections += len(p)
	r.runIDs = append(r.runIDs, runID)
	return nil
}

type recordingPublisher struct {
	runID  string
	season int
	trials int
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, runID string, season, trials int, _ []model.Projection) error {
	p.runID, p.season, p.trials = runID, season, trials
	return p.err
}

// cancelOnSkip cancels the run the first time the engine skips a game.
type cancelOnSkip struct {
	logger.Logger
	cancel context.CancelFunc
}

func (l *cancelOnSkip) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	if msg == "game skipped" {
		l.cancel()
	}
	l.Logger.Warn(ctx, msg, fields...)
}

func (l *cancelOnSkip) Named(string) logger.Logger { return l }

func day(d int) time.Time {
	return time.Date(2024, time.April, d, 0, 0, 0, 0, time.UTC)
}

func season() []model.Game {
	var games []model.Game
	for i := 1; i <= 8; i++ {
		home, away := 147, 111
		if i%2 == 0 {
			home, away = 111, 147
		}
		games = append(games, model.Game{
			ID: i, Date: day(i), Type: "R", Status: model.StatusFinal,
			HomeTeam: home, AwayTeam: away, HomeScore: 5, AwayScore: 3, VenueID: 3313,
		})
	}
	// not final, dropped before any fetch
	games = append(games, model.Game{ID: 99, Date: day(20), Type: "R", Status: "Scheduled", HomeTeam: 147, AwayTeam: 111})
	return games
}

func TestBuildFeatures(t *testing.T) {
	Convey("Given a service with a partially failing fetcher", t, func() {
		ctx := context.Background()
		fetcher := &oddFailFetcher{}
		sink := &recordingSink{}
		svc := app.New(
			app.WithDetails(fetcher),
			app.WithFetchWorkers(3),
			app.WithSinks(sink),
			app.WithParkFactors(features.ParkFactors{3313: 105}),
		)

		Convey("Every final game yields a row and failed fetches degrade", func() {
			report, err := svc.BuildFeatures(ctx, season())
			So(err, ShouldBeNil)
			So(report.Games, ShouldEqual, 9)
			So(report.Eligible, ShouldEqual, 8)
			So(report.DetailFailures, ShouldEqual, 4)
			So(report.Rows, ShouldHaveLength, 8)
			So(report.Engine.Degraded, ShouldEqual, 4)
			So(report.RunID, ShouldNotBeBlank)
			So(fetcher.calls, ShouldEqual, 8)

			So(report.Rows[1].Environment.Temperature, ShouldEqual, 75)
			So(report.Rows[1].ParkFactor, ShouldAlmostEqual, 1.05)
			So(report.Rows[0].Degraded, ShouldBeTrue)

			So(sink.features, ShouldEqual, 8)
			So(sink.snapshots, ShouldEqual, 2)
			So(sink.runIDs, ShouldResemble, []string{report.RunID})

			snaps, err := svc.Snapshots(ctx)
			So(err, ShouldBeNil)
			So(snaps, ShouldHaveLength, 2)
			So(snaps[0].TeamID, ShouldEqual, 111)
			So(snaps[0].GamesPlayed, ShouldEqual, 8)
		})

		Convey("Rows are causal even though fetches run concurrently", func() {
			report, err := svc.BuildFeatures(ctx, season())
			So(err, ShouldBeNil)
			first := report.Rows[0]
			So(first.Home.WinPct, ShouldEqual, 0)
			So(first.Away.WinPct, ShouldEqual, 0)
		})

		Convey("A cancelled context aborts the run", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.BuildFeatures(cctx, season())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a run cancelled after its first row", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sink := &recordingSink{}
		svc := app.New(
			app.WithLogger(&cancelOnSkip{Logger: logger.Get(), cancel: cancel}),
			app.WithSinks(sink),
		)
		games := season()[:2]
		games = []model.Game{games[0], games[0], games[1]}

		report, err := svc.BuildFeatures(ctx, games)

		Convey("Then the emitted row is written and reported with the cancel", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(report, ShouldNotBeNil)
			So(report.Rows, ShouldHaveLength, 1)
			So(report.Rows[0].GameID, ShouldEqual, 1)
			So(report.Engine.Skipped, ShouldEqual, 1)
			So(sink.gameIDs, ShouldResemble, []int{1})
			So(sink.snapshots, ShouldEqual, 2)
			So(sink.runIDs, ShouldResemble, []string{report.RunID})
		})

		Convey("Then the partial snapshots are served", func() {
			snaps, err := svc.Snapshots(context.Background())
			So(err, ShouldBeNil)
			So(snaps, ShouldHaveLength, 2)
			So(snaps[0].GamesPlayed, ShouldEqual, 1)
		})
	})

	Convey("Without a fetcher every game is processed under the detail policy", t, func() {
		svc := app.New()
		report, err := svc.BuildFeatures(context.Background(), season())
		So(err, ShouldBeNil)
		So(report.Rows, ShouldHaveLength, 8)
		So(report.DetailFailures, ShouldEqual, 0)
		So(report.Engine.Degraded, ShouldEqual, 8)
	})
}

func TestFetchGames(t *testing.T) {
	Convey("Given a schedule source", t, func() {
		ctx := context.Background()
		src := &fakeSchedule{bySeason: map[int][]model.Game{
			2023: {{ID: 1}},
			2024: {{ID: 2}, {ID: 3}},
		}}

		Convey("Seasons are concatenated in order", func() {
			games, err := app.New(app.WithSchedule(src)).FetchGames(ctx, 2023, 2024)
			So(err, ShouldBeNil)
			So(games, ShouldHaveLength, 3)
			So(games[0].ID, ShouldEqual, 1)
		})

		Convey("An unavailable season aborts", func() {
			src.fail = 2024
			_, err := app.New(app.WithSchedule(src)).FetchGames(ctx, 2023, 2024)
			So(errors.Is(err, errUpstream), ShouldBeTrue)
		})

		Convey("No source is an error", func() {
			_, err := app.New().FetchGames(ctx, 2024, 2024)
			So(errors.Is(err, app.ErrNoSchedule), ShouldBeTrue)
		})
	})
}

func TestPredictAndSimulate(t *testing.T) {
	Convey("Given built features", t, func() {
		ctx := context.Background()
		sink := &recordingSink{}
		pub := &recordingPublisher{}
		svc := app.New(
			app.WithSinks(sink),
			app.WithPublisher(pub),
			app.WithSimulator(simulation.New(simulation.WithSeed(7), simulation.WithWorkers(2))),
		)
		report, err := svc.BuildFeatures(ctx, season())
		So(err, ShouldBeNil)

		matchups, err := svc.Predict(ctx, report.Rows)
		So(err, ShouldBeNil)
		So(matchups, ShouldHaveLength, 8)
		for _, m := range matchups {
			So(m.HomeWinProb, ShouldBeBetweenOrEqual, 0, 1)
		}

		Convey("Simulation writes, stores and announces projections", func() {
			sim, err := svc.Simulate(ctx, matchups, 500)
			So(err, ShouldBeNil)
			So(sim.Season, ShouldEqual, 2024)
			So(sim.Result.Seed, ShouldEqual, 7)
			So(sim.Result.Projections, ShouldHaveLength, 2)

			total := 0.0
			for _, p := range sim.Result.Projections {
				total += p.MeanWins
			}
			So(total, ShouldAlmostEqual, 8, 1e-9)

			So(sink.projections, ShouldEqual, 2)
			So(pub.runID, ShouldEqual, sim.RunID)
			So(pub.trials, ShouldEqual, 500)
			So(svc.Count(ctx), ShouldEqual, 2)

			top, err := svc.TopN(ctx, 1)
			So(err, ShouldBeNil)
			So(top[0].TeamID, ShouldEqual, sim.Result.Projections[0].TeamID)

			stats := svc.GetStats()
			So(stats["projectedTeams"], ShouldEqual, 2)
			So(stats, ShouldContainKey, "simulation")
			So(stats, ShouldContainKey, "features")
		})

		Convey("A failed announcement does not fail the run", func() {
			pub.err = errUpstream
			_, err := svc.Simulate(ctx, matchups, 10)
			So(err, ShouldBeNil)
		})

		Convey("Invalid trials are rejected before anything is written", func() {
			_, err := svc.Simulate(ctx, matchups, 0)
			So(errors.Is(err, simulation.ErrInvalidTrials), ShouldBeTrue)
			So(sink.projections, ShouldEqual, 0)
		})
	})
}

func TestPredictMatchup(t *testing.T) {
	Convey("Given restored snapshots", t, func() {
		ctx := context.Background()
		svc := app.New(
			app.WithParkFactors(features.ParkFactors{3313: 110}),
			app.WithPredictor(predict.NewLogisticPredictor(predict.WithWeights(map[string]float64{
				features.FeatureDiffWinPct:  2,
				features.FeatureDiffRunDiff: 0.2,
			}))),
		)
		err := svc.Restore(ctx, []model.TeamSnapshot{
			{TeamID: 147, Season: 2024, AsOf: day(30), WinPct: 0.6, OPS: 0.78, RunDiff: 1.2},
			{TeamID: 111, Season: 2024, AsOf: day(29), WinPct: 0.45, OPS: 0.70, RunDiff: -0.4},
		}, []model.Projection{{TeamID: 147, MeanWins: 95}})
		So(err, ShouldBeNil)

		Convey("A stronger home side is favored", func() {
			res, err := svc.PredictMatchup(ctx, api.MatchupQuery{HomeTeam: 147, AwayTeam: 111, VenueID: 3313})
			So(err, ShouldBeNil)
			So(res.HomeWinProb, ShouldBeGreaterThan, 0.5)
			So(res.HomeWinProb, ShouldBeLessThan, 1)
			So(res.HomeName, ShouldEqual, "Yankees")
			So(res.AwayName, ShouldEqual, "Red Sox")
			So(res.AsOf, ShouldEqual, "2024-04-30")

			flipped, err := svc.PredictMatchup(ctx, api.MatchupQuery{HomeTeam: 111, AwayTeam: 147, VenueID: 3313})
			So(err, ShouldBeNil)
			So(flipped.HomeWinProb, ShouldBeLessThan, res.HomeWinProb)
		})

		Convey("An untracked team is unknown", func() {
			_, err := svc.PredictMatchup(ctx, api.MatchupQuery{HomeTeam: 147, AwayTeam: 121})
			So(errors.Is(err, api.ErrUnknownTeam), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, fmt.Sprint(121))
		})

		Convey("Restored projections are served", func() {
			p, err := svc.Projection(ctx, 147)
			So(err, ShouldBeNil)
			So(p.MeanWins, ShouldEqual, 95)
		})
	})
}
