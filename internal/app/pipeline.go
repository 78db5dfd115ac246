package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bullpen/internal/adapters/mq/queue"
	"github.com/okian/bullpen/internal/adapters/mq/worker"
	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/internal/domain/predict"
	"github.com/okian/bullpen/internal/domain/simulation"
	"github.com/okian/bullpen/pkg/logger"
)

// FeaturesReport describes one BuildFeatures run.
type FeaturesReport struct {
	RunID          string               `json:"runId"`
	Games          int                  `json:"games"`
	Eligible       int                  `json:"eligible"`
	DetailFailures int                  `json:"detailFailures"`
	Engine         features.Stats       `json:"engine"`
	Rows           []model.FeatureRow   `json:"-"`
	Snapshots      []model.TeamSnapshot `json:"-"`
	Took           time.Duration        `json:"took"`
}

// SimulationReport describes one Simulate run.
type SimulationReport struct {
	RunID  string            `json:"runId"`
	Season int               `json:"season"`
	Result simulation.Result `json:"result"`
}

// FetchGames lists the games of every season in [from, to]. A season whose
// schedule cannot be read aborts the call.
func (s *Service) FetchGames(ctx context.Context, from, to int) ([]model.Game, error) {
	if s.schedule == nil {
		return nil, ErrNoSchedule
	}
	var games []model.Game
	for season := from; season <= to; season++ {
		g, err := s.schedule.SeasonSchedule(ctx, season)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", season, err)
		}
		games = append(games, g...)
	}
	return games, nil
}

// PrefetchDetails fetches box scores for games through the worker pool.
// Failed fetches are returned by game id; they never fail the call.
func (s *Service) PrefetchDetails(ctx context.Context, games []model.Game) (map[int]*model.BoxScore, map[int]error, error) {
	if s.details == nil || len(games) == 0 {
		return nil, nil, nil
	}
	q := queue.NewInMemoryQueue(
		queue.WithCapacity(len(games)),
		queue.WithBufferSize(len(games)),
	)
	collector := worker.NewCollector()
	poolOpts := []worker.Option{worker.WithLogger(s.logger.Named("fetch"))}
	if s.fetchTimeout > 0 {
		poolOpts = append(poolOpts, worker.WithJobTimeout(s.fetchTimeout))
	}
	pool := worker.NewPool(min(s.fetchWorkers, len(games)), q, s.details, collector, poolOpts...)
	pool.Start(ctx)

	for _, g := range games {
		if !q.Enqueue(ctx, queue.Job{GameID: g.ID}) {
			collector.Deliver(g.ID, nil, ErrQueueRejected)
		}
	}
	if err := pool.Drain(ctx); err != nil {
		_ = pool.Shutdown(context.Background())
		return nil, nil, err
	}

	failures := collector.Failures()
	if len(failures) > 0 {
		s.logger.Warn(ctx, "box scores unavailable",
			logger.Int("failed", len(failures)),
			logger.Int("requested", len(games)))
	}
	return collector.Boxes(), failures, nil
}

// BuildFeatures turns games into feature rows and team snapshots, writes
// them to every sink and keeps the snapshots for serving. A cancelled run
// still writes the rows emitted so far and returns their report with the
// context error.
func (s *Service) BuildFeatures(ctx context.Context, games []model.Game) (*FeaturesReport, error) {
	start := time.Now()
	runID := uuid.NewString()

	opts := append([]features.Option{
		features.WithLogger(s.logger.Named("features")),
		features.WithParkFactors(s.parks),
	}, s.engineOpts...)
	engine := features.New(opts...)

	eligible := engine.Prepare(games)
	boxes, failures, err := s.PrefetchDetails(ctx, eligible)
	if err != nil {
		return nil, fmt.Errorf("prefetch box scores: %w", err)
	}

	rows, runErr := engine.Run(ctx, eligible, boxes)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("feature run: %w", runErr)
	}
	snapshots := engine.Snapshots()

	// Rows emitted before a cancel are final; persist them regardless.
	writeCtx := ctx
	if runErr != nil {
		writeCtx = context.WithoutCancel(ctx)
	}
	if err := s.sinks.WriteFeatures(writeCtx, runID, rows); err != nil {
		return nil, fmt.Errorf("write features: %w", err)
	}
	if err := s.sinks.WriteSnapshots(writeCtx, runID, snapshots); err != nil {
		return nil, fmt.Errorf("write snapshots: %w", err)
	}

	report := &FeaturesReport{
		RunID:          runID,
		Games:          len(games),
		Eligible:       len(eligible),
		DetailFailures: len(failures),
		Engine:         engine.Stats(),
		Rows:           rows,
		Snapshots:      snapshots,
		Took:           time.Since(start),
	}
	s.mu.Lock()
	s.lastFeatures = report
	s.mu.Unlock()

	if runErr != nil {
		s.logger.Warn(writeCtx, "feature run interrupted, partial rows written",
			logger.String("run_id", runID),
			logger.Int("rows", len(rows)),
			logger.Int("eligible", len(eligible)),
			logger.Error(runErr))
		return report, fmt.Errorf("feature run: %w", runErr)
	}

	s.logger.Info(ctx, "features built",
		logger.String("run_id", runID),
		logger.Int("games", len(games)),
		logger.Int("rows", len(rows)),
		logger.Int("teams", len(snapshots)),
		logger.Duration("took", report.Took))
	return report, nil
}

// Predict scores feature rows into the probability table consumed by
// Simulate.
func (s *Service) Predict(ctx context.Context, rows []model.FeatureRow) ([]model.Matchup, error) {
	matchups, err := predict.Table(ctx, s.predictor, rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return matchups, nil
}

// Simulate projects season wins from matchups, writes the projections to
// every sink and announces them. A failed announcement is logged only.
func (s *Service) Simulate(ctx context.Context, matchups []model.Matchup, trials int) (*SimulationReport, error) {
	res, err := s.simulator.Simulate(ctx, matchups, trials)
	if err != nil {
		return nil, err
	}
	report := &SimulationReport{
		RunID:  uuid.NewString(),
		Season: seasonOf(matchups),
		Result: res,
	}

	if err := s.sinks.WriteProjections(ctx, report.RunID, report.Season, res.Projections); err != nil {
		return nil, fmt.Errorf("write projections: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, report.RunID, report.Season, res.Trials, res.Projections); err != nil {
			s.logger.Warn(ctx, "projection publish failed",
				logger.String("run_id", report.RunID),
				logger.Error(err))
		}
	}

	s.mu.Lock()
	s.lastSim = report
	s.mu.Unlock()

	s.logger.Info(ctx, "season simulated",
		logger.String("run_id", report.RunID),
		logger.Int("season", report.Season),
		logger.Int("trials", res.Trials),
		logger.Int("teams", len(res.Projections)))
	return report, nil
}

// Restore loads previously written outputs for serving.
func (s *Service) Restore(ctx context.Context, snapshots []model.TeamSnapshot, projections []model.Projection) error {
	runID := "restored"
	season := 0
	for _, snap := range snapshots {
		season = max(season, snap.Season)
	}
	err := errors.Join(
		s.store.WriteSnapshots(ctx, runID, snapshots),
		s.store.WriteProjections(ctx, runID, season, projections),
	)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	s.logger.Info(ctx, "outputs restored",
		logger.Int("snapshots", len(snapshots)),
		logger.Int("projections", len(projections)))
	return nil
}

// seasonOf returns the latest calendar year among matchup dates.
func seasonOf(matchups []model.Matchup) int {
	season := 0
	for _, m := range matchups {
		if !m.Date.IsZero() {
			season = max(season, m.Date.Year())
		}
	}
	return season
}
