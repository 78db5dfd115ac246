// Package service wires the feature pipeline, the predictor and the season
// simulator, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/bullpen/internal/adapters/mq/worker"
	"github.com/okian/bullpen/internal/adapters/repository"
	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/internal/domain/predict"
	"github.com/okian/bullpen/internal/domain/simulation"
	"github.com/okian/bullpen/pkg/logger"
	"github.com/okian/bullpen/pkg/metrics"
)

// ScheduleSource lists a season's games.
type ScheduleSource interface {
	SeasonSchedule(ctx context.Context, season int) ([]model.Game, error)
}

// Publisher fans out a finished simulation.
type Publisher interface {
	Publish(ctx context.Context, runID string, season, trials int, projections []model.Projection) error
}

// Service runs the pipeline stages and serves their latest outputs.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	schedule  ScheduleSource
	details   worker.Fetcher
	predictor predict.Predictor
	simulator *simulation.Simulator
	store     *repository.MemoryStore
	sinks     repository.MultiSink
	publisher Publisher

	// Configuration
	fetchWorkers int
	fetchTimeout time.Duration
	parks        features.ParkFactors
	engineOpts   []features.Option

	// State
	lastFeatures *FeaturesReport
	lastSim      *SimulationReport

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedule sets the schedule source used by FetchGames.
func WithSchedule(src ScheduleSource) Option {
	return func(s *Service) {
		s.schedule = src
	}
}

// WithDetails sets the box-score fetcher. Without one every game is
// processed under the detail policy for missing box scores.
func WithDetails(f worker.Fetcher) Option {
	return func(s *Service) {
		s.details = f
	}
}

// WithFetchWorkers sets the number of concurrent box-score fetches.
func WithFetchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchWorkers = n
		}
	}
}

// WithFetchTimeout bounds a single box-score fetch, retries included.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithParkFactors sets the venue table used for rows and matchups.
func WithParkFactors(p features.ParkFactors) Option {
	return func(s *Service) {
		s.parks = p
	}
}

// WithEngineOptions configures every feature engine the service creates.
func WithEngineOptions(opts ...features.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithPredictor sets the home-win model.
func WithPredictor(p predict.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithSimulator sets the season simulator.
func WithSimulator(sim *simulation.Simulator) Option {
	return func(s *Service) {
		if sim != nil {
			s.simulator = sim
		}
	}
}

// WithSinks adds output sinks. The in-memory store is always written.
func WithSinks(sinks ...repository.Sink) Option {
	return func(s *Service) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// WithPublisher sets where finished simulations are announced.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fetchWorkers: runtime.NumCPU() * 2,
		store:        repository.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.predictor == nil {
		s.predictor = predict.NewLogisticPredictor()
	}
	if s.simulator == nil {
		s.simulator = simulation.New()
	}
	s.sinks = append(repository.MultiSink{s.store}, s.sinks...)
	return s
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"fetchWorkers":   s.fetchWorkers,
		"projectedTeams": s.store.Count(ctx),
		"parkFactors":    len(s.parks),
	}
	if r := s.lastFeatures; r != nil {
		stats["features"] = r
		metrics.UpdateTrackedEntities(r.Engine.Teams, r.Engine.Pitchers)
	}
	if r := s.lastSim; r != nil {
		stats["simulation"] = map[string]any{
			"runId":  r.RunID,
			"season": r.Season,
			"trials": r.Result.Trials,
			"games":  r.Result.Games,
			"seed":   r.Result.Seed,
		}
	}
	return stats
}
