package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

const (
	sinkPostgres     = "postgres"
	defaultBatchSize = 1000
)

// Schema creates the tables written by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS feature_rows (
	game_id    BIGINT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	season     INT NOT NULL,
	game_date  DATE NOT NULL,
	home_team  INT NOT NULL,
	away_team  INT NOT NULL,
	home_win   BOOLEAN NOT NULL,
	degraded   BOOLEAN NOT NULL,
	payload    JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS team_snapshots (
	team_id      INT NOT NULL,
	season       INT NOT NULL,
	run_id       TEXT NOT NULL,
	as_of        DATE NOT NULL,
	games_played INT NOT NULL,
	wins         INT NOT NULL,
	win_pct      DOUBLE PRECISION NOT NULL,
	ops          DOUBLE PRECISION NOT NULL,
	run_diff     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (team_id, season)
);
CREATE TABLE IF NOT EXISTS season_projections (
	run_id     TEXT NOT NULL,
	team_id    INT NOT NULL,
	season     INT NOT NULL,
	name       TEXT NOT NULL,
	mean_wins  DOUBLE PRECISION NOT NULL,
	lower_wins DOUBLE PRECISION NOT NULL,
	upper_wins DOUBLE PRECISION NOT NULL,
	lower_pct  DOUBLE PRECISION NOT NULL,
	upper_pct  DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, team_id)
);
`

// PostgresStore is a Sink upserting rows in batches inside one transaction
// per write.
type PostgresStore struct {
	db        *sql.DB
	batchSize int
	logger    logger.Logger
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("postgres")
	}
	return s
}

// Migrate creates missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WriteFeatures implements Sink. A game already stored is replaced.
func (s *PostgresStore) WriteFeatures(ctx context.Context, runID string, rows []model.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.inTx(ctx, "feature_rows", len(rows), func(tx *sql.Tx) error {
		for lo := 0; lo < len(rows); lo += s.batchSize {
			hi := min(lo+s.batchSize, len(rows))
			if err := upsertFeatures(ctx, tx, runID, rows[lo:hi]); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertFeatures(ctx context.Context, tx *sql.Tx, runID string, rows []model.FeatureRow) error {
	query := `
		INSERT INTO feature_rows (
			game_id, run_id, season, game_date, home_team, away_team, home_win, degraded, payload
		)
		SELECT UNNEST($1::bigint[]), $2, UNNEST($3::int[]), UNNEST($4::date[]),
		       UNNEST($5::int[]), UNNEST($6::int[]), UNNEST($7::boolean[]),
		       UNNEST($8::boolean[]), UNNEST($9::jsonb[])
		ON CONFLICT (game_id)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			season = EXCLUDED.season,
			game_date = EXCLUDED.game_date,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_win = EXCLUDED.home_win,
			degraded = EXCLUDED.degraded,
			payload = EXCLUDED.payload
	`

	gameIDs := make([]int64, len(rows))
	seasons := make([]int64, len(rows))
	dates := make([]string, len(rows))
	homeTeams := make([]int64, len(rows))
	awayTeams := make([]int64, len(rows))
	homeWins := make([]bool, len(rows))
	degraded := make([]bool, len(rows))
	payloads := make([]string, len(rows))

	for i, r := range rows {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode game %d: %w", r.GameID, err)
		}
		gameIDs[i] = int64(r.GameID)
		seasons[i] = int64(r.Season)
		dates[i] = r.Date.Format(model.DateLayout)
		homeTeams[i] = int64(r.HomeTeam)
		awayTeams[i] = int64(r.AwayTeam)
		homeWins[i] = r.HomeWin
		degraded[i] = r.Degraded
		payloads[i] = string(payload)
	}

	_, err := tx.ExecContext(ctx, query,
		pq.Array(gameIDs), runID, pq.Array(seasons), pq.Array(dates),
		pq.Array(homeTeams), pq.Array(awayTeams), pq.Array(homeWins),
		pq.Array(degraded), pq.Array(payloads),
	)
	return err
}

// WriteSnapshots implements Sink. One row is kept per team and season.
func (s *PostgresStore) WriteSnapshots(ctx context.Context, runID string, snapshots []model.TeamSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	query := `
		INSERT INTO team_snapshots (
			team_id, season, run_id, as_of, games_played, wins, win_pct, ops, run_diff
		)
		SELECT UNNEST($1::int[]), UNNEST($2::int[]), $3, UNNEST($4::date[]),
		       UNNEST($5::int[]), UNNEST($6::int[]), UNNEST($7::float8[]),
		       UNNEST($8::float8[]), UNNEST($9::float8[])
		ON CONFLICT (team_id, season)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			as_of = EXCLUDED.as_of,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			win_pct = EXCLUDED.win_pct,
			ops = EXCLUDED.ops,
			run_diff = EXCLUDED.run_diff
	`

	teamIDs := make([]int64, len(snapshots))
	seasons := make([]int64, len(snapshots))
	asOf := make([]string, len(snapshots))
	played := make([]int64, len(snapshots))
	wins := make([]int64, len(snapshots))
	winPct := make([]float64, len(snapshots))
	ops := make([]float64, len(snapshots))
	runDiff := make([]float64, len(snapshots))

	for i, snap := range snapshots {
		teamIDs[i] = int64(snap.TeamID)
		seasons[i] = int64(snap.Season)
		asOf[i] = snap.AsOf.Format(model.DateLayout)
		played[i] = int64(snap.GamesPlayed)
		wins[i] = int64(snap.Wins)
		winPct[i] = snap.WinPct
		ops[i] = snap.OPS
		runDiff[i] = snap.RunDiff
	}

	return s.inTx(ctx, "team_snapshots", len(snapshots), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			pq.Array(teamIDs), pq.Array(seasons), runID, pq.Array(asOf),
			pq.Array(played), pq.Array(wins), pq.Array(winPct),
			pq.Array(ops), pq.Array(runDiff),
		)
		return err
	})
}

// WriteProjections implements Sink. Projections of earlier runs are kept.
func (s *PostgresStore) WriteProjections(ctx context.Context, runID string, season int, projections []model.Projection) error {
	if len(projections) == 0 {
		return nil
	}
	query := `
		INSERT INTO season_projections (
			run_id, team_id, season, name, mean_wins, lower_wins, upper_wins, lower_pct, upper_pct
		)
		SELECT $1, UNNEST($2::int[]), $3, UNNEST($4::text[]), UNNEST($5::float8[]),
		       UNNEST($6::float8[]), UNNEST($7::float8[]), UNNEST($8::float8[]),
		       UNNEST($9::float8[])
		ON CONFLICT (run_id, team_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			mean_wins = EXCLUDED.mean_wins,
			lower_wins = EXCLUDED.lower_wins,
			upper_wins = EXCLUDED.upper_wins,
			lower_pct = EXCLUDED.lower_pct,
			upper_pct = EXCLUDED.upper_pct
	`

	teamIDs := make([]int64, len(projections))
	names := make([]string, len(projections))
	means := make([]float64, len(projections))
	lowers := make([]float64, len(projections))
	uppers := make([]float64, len(projections))
	lowerPcts := make([]float64, len(projections))
	upperPcts := make([]float64, len(projections))

	for i, p := range projections {
		teamIDs[i] = int64(p.TeamID)
		names[i] = p.Name
		means[i] = p.MeanWins
		lowers[i] = p.LowerWins
		uppers[i] = p.UpperWins
		lowerPcts[i] = p.LowerPct
		upperPcts[i] = p.UpperPct
	}

	return s.inTx(ctx, "season_projections", len(projections), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			runID, pq.Array(teamIDs), season, pq.Array(names), pq.Array(means),
			pq.Array(lowers), pq.Array(uppers), pq.Array(lowerPcts),
			pq.Array(upperPcts),
		)
		return err
	})
}

// LatestProjections reads the projections of the most recent run.
func (s *PostgresStore) LatestProjections(ctx context.Context) (string, int, []model.Projection, error) {
	query := `
		SELECT run_id, season, team_id, name, mean_wins, lower_wins, upper_wins, lower_pct, upper_pct
		FROM season_projections
		WHERE run_id = (
			SELECT run_id FROM season_projections ORDER BY created_at DESC LIMIT 1
		)
		ORDER BY mean_wins DESC, team_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", 0, nil, fmt.Errorf("query projections: %w", err)
	}
	defer rows.Close()

	var (
		runID  string
		season int
		out    []model.Projection
	)
	for rows.Next() {
		var p model.Projection
		if err := rows.Scan(&runID, &season, &p.TeamID, &p.Name, &p.MeanWins,
			&p.LowerWins, &p.UpperWins, &p.LowerPct, &p.UpperPct); err != nil {
			return "", 0, nil, fmt.Errorf("scan projection: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return "", 0, nil, fmt.Errorf("iterate projections: %w", err)
	}
	if len(out) == 0 {
		return "", 0, nil, ErrNotFound
	}
	return runID, season, out, nil
}

func (s *PostgresStore) inTx(ctx context.Context, table string, rows int, fn func(*sql.Tx) error) error {
	err := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}()
	if err != nil {
		metrics.RecordSinkWrite(sinkPostgres, "error", rows)
		s.logger.Error(ctx, "postgres write failed", logger.String("table", table), logger.Error(err))
		return err
	}
	metrics.RecordSinkWrite(sinkPostgres, "ok", rows)
	s.logger.Debug(ctx, "postgres write", logger.String("table", table), logger.Int("rows", rows))
	return nil
}
