package repository_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func date(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFeatureTable(t *testing.T) {
	Convey("Given a feature row", t, func() {
		row := model.FeatureRow{
			GameID:      745001,
			Season:      2024,
			Date:        date("2024-04-02"),
			HomeTeam:    147,
			AwayTeam:    111,
			Environment: model.Environment{VenueID: 3313, Temperature: 58, WindSpeed: 9, Condition: "Partly Cloudy"},
			ParkFactor:  1.05,
			Home: model.SideFeatures{
				Rest: 1, GamesLast7: 3, WinsLast5: 2, WinsLast10: 2, WinPct: 0.667,
				OPS: 0.781, AVG: 0.262, OBP: 0.331, SLG: 0.45, RunDiff: 1.333,
				StarterID: 543037, StarterERA: 3.21, StarterWHIP: 1.08,
			},
			Away:      model.SideFeatures{Rest: 5, StarterERA: 4.5, StarterWHIP: 1.35},
			HomeScore: 5,
			AwayScore: 3,
			HomeWin:   true,
		}

		Convey("It is written with a header and read back field for field", func() {
			var buf bytes.Buffer
			So(repository.WriteFeatures(&buf, []model.FeatureRow{row}), ShouldBeNil)

			header := strings.SplitN(buf.String(), "\n", 2)[0]
			So(header, ShouldStartWith, "game_id,year,date,home_team,away_team")
			So(header, ShouldContainSubstring, "home_starter_whip")
			So(header, ShouldEndWith, "home_win")
			So(buf.String(), ShouldContainSubstring, "2024-04-02")

			got, err := repository.ReadFeatures(&buf)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0], ShouldResemble, row)
		})

		Convey("Label columns may be absent", func() {
			in := "game_id,year,date,home_team,away_team,temp,wind_speed," +
				"home_rest,home_games_last_7,home_wins_last_5,home_wins_last_10,home_win_pct,home_ops,home_avg,home_run_diff,home_starter_era,home_starter_whip," +
				"away_rest,away_games_last_7,away_wins_last_5,away_wins_last_10,away_win_pct,away_ops,away_avg,away_run_diff,away_starter_era,away_starter_whip\n" +
				"1,2024,2024-05-01,147,111,70,0,2,4,3,6,0.6,0.7,0.25,1.5,3.9,1.2,1,5,2,4,0.45,0.68,0.24,-0.5,4.5,1.35\n"
			got, err := repository.ReadFeatures(strings.NewReader(in))
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Home.WinsLast10, ShouldEqual, 6)
			So(got[0].Away.RunDiff, ShouldEqual, -0.5)
			So(got[0].HomeWin, ShouldBeFalse)
		})

		Convey("A missing required column is reported", func() {
			_, err := repository.ReadFeatures(strings.NewReader("game_id,date\n1,2024-05-01\n"))
			So(errors.Is(err, repository.ErrMissingColumn), ShouldBeTrue)
		})

		Convey("An unparsable cell names its line and column", func() {
			_, err := repository.ReadMatchups(strings.NewReader("game_id,home_team,away_team,home_win_prob\n1,147,111,high\n"))
			So(errors.Is(err, repository.ErrMalformedRow), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 2")
			So(err.Error(), ShouldContainSubstring, "home_win_prob")
		})
	})
}

func TestSmallTables(t *testing.T) {
	Convey("Matchups keep their order and probabilities", t, func() {
		in := []model.Matchup{
			{GameID: 1, Date: date("2024-04-01"), HomeTeam: 147, AwayTeam: 111, HomeWinProb: 0.9},
			{GameID: 2, HomeTeam: 111, AwayTeam: 147, HomeWinProb: 0.1},
		}
		var buf bytes.Buffer
		So(repository.WriteMatchups(&buf, in), ShouldBeNil)
		got, err := repository.ReadMatchups(&buf)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, in)
	})

	Convey("Games read back with optional season and type", t, func() {
		in := "game_id,date,status,home_team,away_team,home_score,away_score\n" +
			"7,2024-04-01,Final,147,111,3,2\n"
		got, err := repository.ReadGames(strings.NewReader(in))
		So(err, ShouldBeNil)
		So(got, ShouldResemble, []model.Game{{
			ID: 7, Date: date("2024-04-01"), Status: "Final",
			HomeTeam: 147, AwayTeam: 111, HomeScore: 3, AwayScore: 2,
		}})
	})

	Convey("Park factors ignore extra columns and accept a byte order mark", t, func() {
		in := "\ufeffvenue_id,name,park_factor\n3313,Yankee Stadium,105\n3,Fenway Park,104.5\n"
		got, err := repository.ReadParkFactors(strings.NewReader(in))
		So(err, ShouldBeNil)
		So(got, ShouldResemble, map[int]float64{3313: 105, 3: 104.5})
	})

	Convey("An empty input yields no rows", t, func() {
		got, err := repository.ReadProjections(strings.NewReader(""))
		So(err, ShouldBeNil)
		So(got, ShouldBeEmpty)
	})
}

func TestCSVStore(t *testing.T) {
	Convey("Given a CSV store in a temp directory", t, func() {
		dir := t.TempDir()
		files := repository.CSVFiles{
			Features:    filepath.Join(dir, "out", "features.csv"),
			Snapshots:   filepath.Join(dir, "out", "snapshots.csv"),
			Projections: filepath.Join(dir, "projections.csv"),
		}
		store := repository.NewCSVStore(files)
		ctx := context.Background()

		Convey("Projections are written and loaded back", func() {
			in := []model.Projection{
				{TeamID: 147, Name: "Yankees", MeanWins: 94.2, LowerWins: 88, UpperWins: 100, LowerPct: 0.1, UpperPct: 0.9},
			}
			So(store.WriteProjections(ctx, "run", 2024, in), ShouldBeNil)
			got, err := repository.LoadFile(files.Projections, repository.ReadProjections)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, in)
		})

		Convey("Missing directories are created and no temp files remain", func() {
			snaps := []model.TeamSnapshot{{TeamID: 147, Name: "Yankees", Season: 2024, AsOf: date("2024-09-30"), Wins: 94}}
			So(store.WriteSnapshots(ctx, "run", snaps), ShouldBeNil)
			So(store.WriteFeatures(ctx, "run", nil), ShouldBeNil)

			entries, err := os.ReadDir(filepath.Join(dir, "out"))
			So(err, ShouldBeNil)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			So(names, ShouldResemble, []string{"features.csv", "snapshots.csv"})

			got, err := repository.LoadFile(files.Snapshots, repository.ReadSnapshots)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, snaps)
		})

		Convey("An unset path is skipped", func() {
			empty := repository.NewCSVStore(repository.CSVFiles{})
			So(empty.WriteFeatures(ctx, "run", []model.FeatureRow{{GameID: 1}}), ShouldBeNil)
		})

		Convey("Loading a missing file fails", func() {
			_, err := repository.LoadFile(filepath.Join(dir, "nope.csv"), repository.ReadGames)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
