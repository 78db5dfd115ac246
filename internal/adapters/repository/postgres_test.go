package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/model"
)

func anyArgs(n int) []driver.Value {
	out := make([]driver.Value, n)
	for i := range out {
		out[i] = sqlmock.AnyArg()
	}
	return out
}

func TestPostgresStore(t *testing.T) {
	Convey("Given a postgres store over sqlmock", t, func() {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		defer db.Close()

		store := repository.NewPostgresStore(db, repository.WithBatchSize(2))
		ctx := context.Background()

		rows := []model.FeatureRow{
			{GameID: 1, Season: 2024, Date: date("2024-04-01"), HomeTeam: 147, AwayTeam: 111, HomeWin: true},
			{GameID: 2, Season: 2024, Date: date("2024-04-02"), HomeTeam: 111, AwayTeam: 147},
			{GameID: 3, Season: 2024, Date: date("2024-04-03"), HomeTeam: 147, AwayTeam: 111, Degraded: true},
		}

		Convey("Feature rows are upserted in batches inside one transaction", func() {
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO feature_rows`).
				WithArgs(anyArgs(9)...).
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectExec(`INSERT INTO feature_rows`).
				WithArgs(anyArgs(9)...).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			So(store.WriteFeatures(ctx, "run-1", rows), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("A failed batch rolls the whole write back", func() {
			boom := errors.New("connection reset")
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO feature_rows`).
				WithArgs(anyArgs(9)...).
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectExec(`INSERT INTO feature_rows`).
				WithArgs(anyArgs(9)...).
				WillReturnError(boom)
			mock.ExpectRollback()

			err := store.WriteFeatures(ctx, "run-1", rows)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("An empty write touches nothing", func() {
			So(store.WriteFeatures(ctx, "run-1", nil), ShouldBeNil)
			So(store.WriteSnapshots(ctx, "run-1", nil), ShouldBeNil)
			So(store.WriteProjections(ctx, "run-1", 2024, nil), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Snapshots upsert by team and season", func() {
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO team_snapshots`).
				WithArgs(anyArgs(9)...).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			snaps := []model.TeamSnapshot{{TeamID: 147, Season: 2024, AsOf: date("2024-09-30"), Wins: 94}}
			So(store.WriteSnapshots(ctx, "run-1", snaps), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Projections carry the run id and season", func() {
			args := anyArgs(9)
			args[0] = "run-7"
			args[2] = 2024
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO season_projections`).
				WithArgs(args...).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			p := []model.Projection{{TeamID: 147, Name: "Yankees", MeanWins: 94.2}}
			So(store.WriteProjections(ctx, "run-7", 2024, p), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("The latest run is read back in rank order", func() {
			cols := []string{"run_id", "season", "team_id", "name", "mean_wins", "lower_wins", "upper_wins", "lower_pct", "upper_pct"}
			mock.ExpectQuery(`SELECT run_id, season, team_id`).
				WillReturnRows(sqlmock.NewRows(cols).
					AddRow("run-7", 2024, 147, "Yankees", 94.2, 88.0, 100.0, 0.1, 0.9).
					AddRow("run-7", 2024, 111, "Red Sox", 80.5, 74.0, 87.0, 0.1, 0.9))

			runID, season, got, err := store.LatestProjections(ctx)
			So(err, ShouldBeNil)
			So(runID, ShouldEqual, "run-7")
			So(season, ShouldEqual, 2024)
			So(got, ShouldHaveLength, 2)
			So(got[0].TeamID, ShouldEqual, 147)
			So(got[1].Name, ShouldEqual, "Red Sox")
		})

		Convey("No stored run is reported as not found", func() {
			mock.ExpectQuery(`SELECT run_id, season, team_id`).
				WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

			_, _, _, err := store.LatestProjections(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Migrate creates the schema", func() {
			mock.ExpectExec(`CREATE TABLE IF NOT EXISTS feature_rows`).
				WillReturnResult(sqlmock.NewResult(0, 0))
			So(store.Migrate(ctx), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}
