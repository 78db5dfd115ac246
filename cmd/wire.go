package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/okian/bullpen/internal/adapters/cache"
	"github.com/okian/bullpen/internal/adapters/mq/stream"
	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/adapters/statsapi"
	app "github.com/okian/bullpen/internal/app"
	"github.com/okian/bullpen/internal/config"
	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/predict"
	"github.com/okian/bullpen/internal/domain/simulation"
	"github.com/okian/bullpen/pkg/logger"
)

// deps holds the service and the connections it was built over.
type deps struct {
	svc      *app.Service
	postgres *repository.PostgresStore
	closers  []func() error
}

func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// buildOptions tweaks wiring per subcommand.
type buildOptions struct {
	// offline leaves the box-score fetcher unset so rows are built from the
	// schedule alone.
	offline bool
	// csv writes run outputs to the configured files.
	csv bool
}

// build wires the service from configuration. Redis and Postgres are used
// only when configured.
func build(ctx context.Context, cfg *config.Config, bo buildOptions) (*deps, error) {
	l := logger.Get()
	d := &deps{}

	client := statsapi.NewClient(
		statsapi.WithBaseURL(cfg.StatsBaseURL),
		statsapi.WithTimeout(cfg.HTTPTimeout),
		statsapi.WithDetailRetry(cfg.DetailRetries, cfg.DetailRetryDelay),
		statsapi.WithScheduleRetry(cfg.ScheduleRetries, cfg.ScheduleRetryDelay),
		statsapi.WithChunkDays(cfg.ScheduleChunkDays),
		statsapi.WithSeasonWindow(cfg.SeasonStart, cfg.SeasonEnd),
	)

	parks, err := loadParkFactors(cfg.Path(cfg.ParkFactorsFile))
	if err != nil {
		return nil, err
	}

	opts := []app.Option{
		app.WithLogger(l),
		app.WithSchedule(client),
		app.WithFetchWorkers(cfg.FetchWorkers),
		app.WithFetchTimeout(detailBudget(cfg)),
		app.WithParkFactors(parks),
		app.WithEngineOptions(
			features.WithDefaultRest(cfg.DefaultRestDays),
			features.WithNeutralPitching(cfg.NeutralERA, cfg.NeutralWHIP),
			features.WithSkipMissingDetail(cfg.DetailPolicy == config.DetailPolicySkip),
			features.WithGameTypes(cfg.GameTypes),
			features.WithDedupeLimit(cfg.DedupeMaxSize),
		),
		app.WithPredictor(predict.NewLogisticPredictor(
			predict.WithIntercept(cfg.ModelIntercept),
			predict.WithWeights(cfg.ModelWeights),
		)),
		app.WithSimulator(simulation.New(
			simulation.WithWorkers(cfg.SimWorkers),
			simulation.WithSeed(cfg.Seed),
			simulation.WithPercentiles(cfg.LowerPercentile, cfg.UpperPercentile),
		)),
	}

	var sinks []repository.Sink
	if bo.csv {
		sinks = append(sinks, repository.NewCSVStore(repository.CSVFiles{
			Features:    cfg.Path(cfg.FeaturesFile),
			Snapshots:   cfg.Path(cfg.SnapshotsFile),
			Projections: cfg.Path(cfg.ProjectionsFile),
		}))
	}

	var details cache.Fetcher = client
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.closers = append(d.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The cache and stream degrade on their own; keep going.
			l.Warn(ctx, "redis unreachable", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		details = cache.New(rdb, client, cache.WithTTL(cfg.CacheTTL))
		opts = append(opts, app.WithPublisher(stream.NewPublisher(rdb, stream.WithStream(cfg.ProjectionStream))))
	}
	if !bo.offline {
		opts = append(opts, app.WithDetails(details))
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		d.closers = append(d.closers, db.Close)
		pg := repository.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = d.Close()
			return nil, err
		}
		d.postgres = pg
		sinks = append(sinks, pg)
	}
	opts = append(opts, app.WithSinks(sinks...))

	d.svc = app.New(opts...)
	return d, nil
}

// detailBudget bounds one box-score job: every attempt may time out and
// attempt n waits delay * n first.
func detailBudget(cfg *config.Config) time.Duration {
	n := time.Duration(cfg.DetailRetries)
	return cfg.HTTPTimeout*n + cfg.DetailRetryDelay*n*(n-1)/2
}

// loadParkFactors reads the venue table; an unset path yields no factors.
func loadParkFactors(path string) (features.ParkFactors, error) {
	if path == "" {
		return nil, nil
	}
	parks, err := repository.LoadFile(path, repository.ReadParkFactors)
	if err != nil {
		return nil, fmt.Errorf("park factors: %w", err)
	}
	return parks, nil
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
