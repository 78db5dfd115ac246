package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/config"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// testConfig roots every output in a temporary directory and keeps the
// simulation small and seeded.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New(context.Background())
	cfg.DataDir = t.TempDir()
	cfg.Trials = 200
	cfg.Seed = 7
	cfg.SimWorkers = 2
	cfg.FetchWorkers = 2
	return cfg
}

// writeGames saves two short seasons between four clubs.
func writeGames(t *testing.T, dir string) string {
	t.Helper()
	teams := []int{147, 111, 121, 110}
	var games []model.Game
	id := 1
	for _, year := range []int{2023, 2024} {
		start := time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
		for day := 0; day < 12; day++ {
			home, away := teams[day%4], teams[(day+1)%4]
			games = append(games, model.Game{
				ID:        id,
				Date:      start.AddDate(0, 0, day),
				Season:    year,
				Type:      "R",
				Status:    model.StatusFinal,
				HomeTeam:  home,
				AwayTeam:  away,
				HomeScore: 3 + day%3,
				AwayScore: 2 + day%4,
				VenueID:   3313,
			})
			id++
		}
	}
	path := filepath.Join(dir, "games.csv")
	if err := repository.SaveFile(path, games, repository.WriteGames); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDispatch(t *testing.T) {
	convey.Convey("Given the command dispatcher", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		var out bytes.Buffer

		convey.Convey("When no command is given", func() {
			err := dispatch(ctx, cfg, nil, &out)
			convey.So(errors.Is(err, ErrUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When the command is unknown", func() {
			err := dispatch(ctx, cfg, []string{"train"}, &out)
			convey.So(errors.Is(err, ErrUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When simulate has nothing to read", func() {
			err := dispatch(ctx, cfg, []string{"simulate"}, &out)
			convey.So(errors.Is(err, ErrNoInput), convey.ShouldBeTrue)
		})

		convey.Convey("When features gets reversed seasons", func() {
			err := dispatch(ctx, cfg, []string{"features", "-from", "2024", "-to", "2020"}, &out)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a flag is malformed", func() {
			err := dispatch(ctx, cfg, []string{"simulate", "-trials", "many"}, &out)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestFeaturesThenSimulate(t *testing.T) {
	convey.Convey("Given a games file and an empty data directory", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		gamesPath := writeGames(t, t.TempDir())
		var out bytes.Buffer

		convey.Convey("When features runs offline", func() {
			err := dispatch(ctx, cfg, []string{"features", "-games", gamesPath, "-offline"}, &out)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then features, snapshots and probabilities are written", func() {
				rows, err := repository.LoadFile(cfg.Path(cfg.FeaturesFile), repository.ReadFeatures)
				convey.So(err, convey.ShouldBeNil)
				convey.So(rows, convey.ShouldHaveLength, 24)
				convey.So(rows[0].Degraded, convey.ShouldBeTrue)

				snaps, err := repository.LoadFile(cfg.Path(cfg.SnapshotsFile), repository.ReadSnapshots)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snaps, convey.ShouldHaveLength, 4)

				matchups, err := repository.LoadFile(cfg.Path(cfg.ProbabilitiesFile), repository.ReadMatchups)
				convey.So(err, convey.ShouldBeNil)
				convey.So(matchups, convey.ShouldHaveLength, 24)
				convey.So(out.String(), convey.ShouldContainSubstring, "24 rows")
			})

			convey.Convey("Then simulate projects the latest season", func() {
				out.Reset()
				err := dispatch(ctx, cfg, []string{"simulate", "-trials", "100"}, &out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "season 2024, 12 games, 100 trials, seed 7")
				convey.So(out.String(), convey.ShouldContainSubstring, "RANK")

				projections, err := repository.LoadFile(cfg.Path(cfg.ProjectionsFile), repository.ReadProjections)
				convey.So(err, convey.ShouldBeNil)
				convey.So(projections, convey.ShouldHaveLength, 4)
				total := 0.0
				for _, p := range projections {
					total += p.MeanWins
				}
				convey.So(total, convey.ShouldAlmostEqual, 12, 1e-9)
			})

			convey.Convey("Then simulate falls back to the features file", func() {
				convey.So(os.Remove(cfg.Path(cfg.ProbabilitiesFile)), convey.ShouldBeNil)
				out.Reset()
				err := dispatch(ctx, cfg, []string{"simulate", "-season", "2023"}, &out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "season 2023, 12 games")
			})

			convey.Convey("Then serve restores the written outputs", func() {
				err := dispatch(ctx, cfg, []string{"simulate"}, &out)
				convey.So(err, convey.ShouldBeNil)

				d, err := build(ctx, cfg, buildOptions{offline: true})
				convey.So(err, convey.ShouldBeNil)
				defer d.Close()
				convey.So(restore(ctx, cfg, d), convey.ShouldBeNil)
				convey.So(d.svc.Count(ctx), convey.ShouldEqual, 4)

				srv := newServer(ctx, ":0", d.svc, 10)
				rec := httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projections?limit=2", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				rec = httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/111", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "Red Sox")
			})
		})
	})
}

func TestSeasonMatchups(t *testing.T) {
	convey.Convey("Given matchups across two seasons", t, func() {
		d23 := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
		d24 := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
		matchups := []model.Matchup{
			{GameID: 1, Date: d23, HomeTeam: 147, AwayTeam: 111},
			{GameID: 2, Date: d24, HomeTeam: 111, AwayTeam: 147},
			{GameID: 3, HomeTeam: 121, AwayTeam: 110},
		}

		convey.So(seasonMatchups(matchups, 0), convey.ShouldHaveLength, 2)
		convey.So(seasonMatchups(matchups, 0)[0].GameID, convey.ShouldEqual, 2)
		convey.So(seasonMatchups(matchups, 2023)[0].GameID, convey.ShouldEqual, 1)
		convey.So(seasonMatchups(matchups, 1999), convey.ShouldHaveLength, 1)
		convey.So(seasonMatchups(matchups[2:], 0), convey.ShouldHaveLength, 1)
	})
}

func TestPrintProjections(t *testing.T) {
	convey.Convey("Given projections with fractional percentiles", t, func() {
		var out bytes.Buffer
		err := printProjections(&out, []model.Projection{
			{TeamID: 147, Name: "Yankees", MeanWins: 91.46, LowerWins: 84.4, UpperWins: 98.6},
		})

		convey.Convey("Then the percentiles keep one decimal", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, "91.5")
			convey.So(out.String(), convey.ShouldContainSubstring, "84.4")
			convey.So(out.String(), convey.ShouldContainSubstring, "98.6")
		})
	})
}

func TestServeWithoutOutputs(t *testing.T) {
	convey.Convey("Given an empty data directory", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		d, err := build(ctx, cfg, buildOptions{offline: true})
		convey.So(err, convey.ShouldBeNil)
		defer d.Close()

		convey.Convey("Then restore leaves the store empty", func() {
			convey.So(restore(ctx, cfg, d), convey.ShouldBeNil)
			convey.So(d.svc.Count(ctx), convey.ShouldEqual, 0)
		})

		convey.Convey("Then health still answers", func() {
			srv := newServer(ctx, ":0", d.svc, 0)
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
	})
}
