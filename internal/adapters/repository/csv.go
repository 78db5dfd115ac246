package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

const sinkCSV = "csv"

type fr = model.FeatureRow

func sideColumns(prefix string, side func(*fr) *model.SideFeatures) []column[fr] {
	return []column[fr]{
		intCol(prefix+"rest", func(r *fr) *int { return &side(r).Rest }),
		intCol(prefix+"games_last_7", func(r *fr) *int { return &side(r).GamesLast7 }),
		intCol(prefix+"wins_last_5", func(r *fr) *int { return &side(r).WinsLast5 }),
		intCol(prefix+"wins_last_10", func(r *fr) *int { return &side(r).WinsLast10 }),
		floatCol(prefix+"win_pct", func(r *fr) *float64 { return &side(r).WinPct }),
		floatCol(prefix+"ops", func(r *fr) *float64 { return &side(r).OPS }),
		floatCol(prefix+"avg", func(r *fr) *float64 { return &side(r).AVG }),
		optional(floatCol(prefix+"obp", func(r *fr) *float64 { return &side(r).OBP })),
		optional(floatCol(prefix+"slg", func(r *fr) *float64 { return &side(r).SLG })),
		floatCol(prefix+"run_diff", func(r *fr) *float64 { return &side(r).RunDiff }),
		optional(intCol(prefix+"starter_id", func(r *fr) *int { return &side(r).StarterID })),
		floatCol(prefix+"starter_era", func(r *fr) *float64 { return &side(r).StarterERA }),
		floatCol(prefix+"starter_whip", func(r *fr) *float64 { return &side(r).StarterWHIP }),
	}
}

var featureColumns = func() []column[fr] {
	cols := []column[fr]{
		intCol("game_id", func(r *fr) *int { return &r.GameID }),
		intCol("year", func(r *fr) *int { return &r.Season }),
		dateCol("date", func(r *fr) *time.Time { return &r.Date }),
		intCol("home_team", func(r *fr) *int { return &r.HomeTeam }),
		intCol("away_team", func(r *fr) *int { return &r.AwayTeam }),
		optional(intCol("venue_id", func(r *fr) *int { return &r.Environment.VenueID })),
		intCol("temp", func(r *fr) *int { return &r.Environment.Temperature }),
		intCol("wind_speed", func(r *fr) *int { return &r.Environment.WindSpeed }),
		optional(stringCol("condition", func(r *fr) *string { return &r.Environment.Condition })),
		optional(floatCol("park_factor", func(r *fr) *float64 { return &r.ParkFactor })),
	}
	cols = append(cols, sideColumns("home_", func(r *fr) *model.SideFeatures { return &r.Home })...)
	cols = append(cols, sideColumns("away_", func(r *fr) *model.SideFeatures { return &r.Away })...)
	return append(cols,
		optional(boolCol("degraded", func(r *fr) *bool { return &r.Degraded })),
		optional(intCol("home_score", func(r *fr) *int { return &r.HomeScore })),
		optional(intCol("away_score", func(r *fr) *int { return &r.AwayScore })),
		optional(boolCol("home_win", func(r *fr) *bool { return &r.HomeWin })),
	)
}()

var gameColumns = []column[model.Game]{
	intCol("game_id", func(g *model.Game) *int { return &g.ID }),
	dateCol("date", func(g *model.Game) *time.Time { return &g.Date }),
	optional(intCol("season", func(g *model.Game) *int { return &g.Season })),
	optional(stringCol("game_type", func(g *model.Game) *string { return &g.Type })),
	stringCol("status", func(g *model.Game) *string { return &g.Status }),
	intCol("home_team", func(g *model.Game) *int { return &g.HomeTeam }),
	intCol("away_team", func(g *model.Game) *int { return &g.AwayTeam }),
	intCol("home_score", func(g *model.Game) *int { return &g.HomeScore }),
	intCol("away_score", func(g *model.Game) *int { return &g.AwayScore }),
	optional(intCol("venue_id", func(g *model.Game) *int { return &g.VenueID })),
}

var matchupColumns = []column[model.Matchup]{
	intCol("game_id", func(m *model.Matchup) *int { return &m.GameID }),
	optional(dateCol("date", func(m *model.Matchup) *time.Time { return &m.Date })),
	intCol("home_team", func(m *model.Matchup) *int { return &m.HomeTeam }),
	intCol("away_team", func(m *model.Matchup) *int { return &m.AwayTeam }),
	floatCol("home_win_prob", func(m *model.Matchup) *float64 { return &m.HomeWinProb }),
}

var projectionColumns = []column[model.Projection]{
	intCol("team_id", func(p *model.Projection) *int { return &p.TeamID }),
	stringCol("name", func(p *model.Projection) *string { return &p.Name }),
	floatCol("mean_wins", func(p *model.Projection) *float64 { return &p.MeanWins }),
	floatCol("lower_wins", func(p *model.Projection) *float64 { return &p.LowerWins }),
	floatCol("upper_wins", func(p *model.Projection) *float64 { return &p.UpperWins }),
	optional(floatCol("lower_pct", func(p *model.Projection) *float64 { return &p.LowerPct })),
	optional(floatCol("upper_pct", func(p *model.Projection) *float64 { return &p.UpperPct })),
}

type ts = model.TeamSnapshot

var snapshotColumns = []column[ts]{
	intCol("team_id", func(s *ts) *int { return &s.TeamID }),
	stringCol("name", func(s *ts) *string { return &s.Name }),
	intCol("season", func(s *ts) *int { return &s.Season }),
	dateCol("as_of", func(s *ts) *time.Time { return &s.AsOf }),
	intCol("games_played", func(s *ts) *int { return &s.GamesPlayed }),
	intCol("wins", func(s *ts) *int { return &s.Wins }),
	floatCol("win_pct", func(s *ts) *float64 { return &s.WinPct }),
	floatCol("ops", func(s *ts) *float64 { return &s.OPS }),
	floatCol("avg", func(s *ts) *float64 { return &s.AVG }),
	floatCol("run_diff", func(s *ts) *float64 { return &s.RunDiff }),
	intCol("wins_last_5", func(s *ts) *int { return &s.WinsLast5 }),
	intCol("wins_last_10", func(s *ts) *int { return &s.WinsLast10 }),
	intCol("games_last_7", func(s *ts) *int { return &s.GamesLast7 }),
	floatCol("last_starter_whip", func(s *ts) *float64 { return &s.LastStarterWHIP }),
}

type parkRow struct {
	venue  int
	factor float64
}

var parkColumns = []column[parkRow]{
	intCol("venue_id", func(p *parkRow) *int { return &p.venue }),
	floatCol("park_factor", func(p *parkRow) *float64 { return &p.factor }),
}

// Codec entry points over io streams.

// WriteFeatures writes feature rows with a header line.
func WriteFeatures(w io.Writer, rows []model.FeatureRow) error {
	return writeTable(w, featureColumns, rows)
}

// ReadFeatures reads feature rows written by WriteFeatures. Label and
// detail columns are optional.
func ReadFeatures(r io.Reader) ([]model.FeatureRow, error) {
	return readTable(r, featureColumns)
}

// WriteGames writes schedule entries.
func WriteGames(w io.Writer, games []model.Game) error {
	return writeTable(w, gameColumns, games)
}

// ReadGames reads schedule entries.
func ReadGames(r io.Reader) ([]model.Game, error) {
	return readTable(r, gameColumns)
}

// WriteMatchups writes a probability table.
func WriteMatchups(w io.Writer, matchups []model.Matchup) error {
	return writeTable(w, matchupColumns, matchups)
}

// ReadMatchups reads a probability table.
func ReadMatchups(r io.Reader) ([]model.Matchup, error) {
	return readTable(r, matchupColumns)
}

// WriteProjections writes season projections.
func WriteProjections(w io.Writer, projections []model.Projection) error {
	return writeTable(w, projectionColumns, projections)
}

// ReadProjections reads season projections.
func ReadProjections(r io.Reader) ([]model.Projection, error) {
	return readTable(r, projectionColumns)
}

// WriteSnapshots writes team snapshots.
func WriteSnapshots(w io.Writer, snapshots []model.TeamSnapshot) error {
	return writeTable(w, snapshotColumns, snapshots)
}

// ReadSnapshots reads team snapshots.
func ReadSnapshots(r io.Reader) ([]model.TeamSnapshot, error) {
	return readTable(r, snapshotColumns)
}

// ReadParkFactors reads a venue_id,park_factor table. Later rows win.
func ReadParkFactors(r io.Reader) (map[int]float64, error) {
	rows, err := readTable(r, parkColumns)
	if err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(rows))
	for _, p := range rows {
		out[p.venue] = p.factor
	}
	return out, nil
}

// LoadFile opens path and decodes it with read.
func LoadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	return v, nil
}

// SaveFile encodes v into path through a temporary file in the same
// directory, so readers never observe a partial file.
func SaveFile[T any](path string, v T, write func(io.Writer, T) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmp := f.Name()
	if err := write(f, v); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// CSVFiles names the files a CSVStore writes. Empty paths are skipped.
type CSVFiles struct {
	Features    string
	Snapshots   string
	Projections string
}

// CSVStore is a Sink writing each output to its own file.
type CSVStore struct {
	files  CSVFiles
	logger logger.Logger
}

// NewCSVStore creates a file sink.
func NewCSVStore(files CSVFiles, opts ...CSVOption) *CSVStore {
	s := &CSVStore{files: files}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("csv")
	}
	return s
}

// WriteFeatures implements Sink.
func (s *CSVStore) WriteFeatures(ctx context.Context, _ string, rows []model.FeatureRow) error {
	return s.save(ctx, s.files.Features, len(rows), func() error {
		return SaveFile(s.files.Features, rows, WriteFeatures)
	})
}

// WriteSnapshots implements Sink.
func (s *CSVStore) WriteSnapshots(ctx context.Context, _ string, snapshots []model.TeamSnapshot) error {
	return s.save(ctx, s.files.Snapshots, len(snapshots), func() error {
		return SaveFile(s.files.Snapshots, snapshots, WriteSnapshots)
	})
}

// WriteProjections implements Sink.
func (s *CSVStore) WriteProjections(ctx context.Context, _ string, _ int, projections []model.Projection) error {
	return s.save(ctx, s.files.Projections, len(projections), func() error {
		return SaveFile(s.files.Projections, projections, WriteProjections)
	})
}

func (s *CSVStore) save(ctx context.Context, path string, rows int, write func() error) error {
	if path == "" {
		return nil
	}
	if err := write(); err != nil {
		metrics.RecordSinkWrite(sinkCSV, "error", rows)
		return err
	}
	metrics.RecordSinkWrite(sinkCSV, "ok", rows)
	s.logger.Info(ctx, "file written", logger.String("path", path), logger.Int("rows", rows))
	return nil
}
