// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and environment variables.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Detail policies for games whose box score cannot be fetched.
const (
	DetailPolicyDegrade = "degrade"
	DetailPolicySkip    = "skip"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address for `serve`, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StatsBaseURL is the root of the upstream stats API.
	StatsBaseURL string        `koanf:"stats_base_url"`
	HTTPTimeout  time.Duration `koanf:"http_timeout"`

	// Box-score fetches retry with linear backoff: delay * attempt.
	DetailRetries    int           `koanf:"detail_retries"`
	DetailRetryDelay time.Duration `koanf:"detail_retry_delay"`

	// Schedule chunk fetches retry with linear backoff as well.
	ScheduleRetries    int           `koanf:"schedule_retries"`
	ScheduleRetryDelay time.Duration `koanf:"schedule_retry_delay"`
	ScheduleChunkDays  int           `koanf:"schedule_chunk_days"`

	// FetchWorkers bounds concurrent box-score fetches.
	FetchWorkers int `koanf:"fetch_workers"`
	// DetailPolicy is "degrade" or "skip".
	DetailPolicy string `koanf:"detail_policy"`

	// Seasons to acquire, inclusive, and the calendar window scanned in each.
	StartSeason int      `koanf:"start_season"`
	EndSeason   int      `koanf:"end_season"`
	SeasonStart string   `koanf:"season_start"` // MM-DD
	SeasonEnd   string   `koanf:"season_end"`   // MM-DD
	GameTypes   []string `koanf:"game_types"`

	// DedupeMaxSize bounds the game ids remembered per run; 0 is unbounded.
	DedupeMaxSize int `koanf:"dedupe_max_size"`

	// Tracker defaults.
	DefaultRestDays int     `koanf:"default_rest_days"`
	NeutralERA      float64 `koanf:"neutral_era"`
	NeutralWHIP     float64 `koanf:"neutral_whip"`

	// Simulation.
	Trials          int     `koanf:"trials"`
	SimWorkers      int     `koanf:"sim_workers"`
	Seed            uint64  `koanf:"seed"` // 0 draws a random seed
	LowerPercentile float64 `koanf:"lower_percentile"`
	UpperPercentile float64 `koanf:"upper_percentile"`

	// Files, relative to DataDir unless absolute.
	DataDir           string `koanf:"data_dir"`
	FeaturesFile      string `koanf:"features_file"`
	ProbabilitiesFile string `koanf:"probabilities_file"`
	ProjectionsFile   string `koanf:"projections_file"`
	SnapshotsFile     string `koanf:"snapshots_file"`
	ParkFactorsFile   string `koanf:"park_factors_file"`

	// Logistic model coefficients over the feature vector.
	ModelIntercept float64            `koanf:"model_intercept"`
	ModelWeights   map[string]float64 `koanf:"model_weights"`

	// Optional sinks and cache. Empty values disable them.
	PostgresDSN      string        `koanf:"postgres_dsn"`
	RedisAddr        string        `koanf:"redis_addr"`
	RedisPassword    string        `koanf:"redis_password"`
	RedisDB          int           `koanf:"redis_db"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	ProjectionStream string        `koanf:"projection_stream"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		StatsBaseURL:       "https://statsapi.mlb.com",
		HTTPTimeout:        10 * time.Second,
		DetailRetries:      5,
		DetailRetryDelay:   500 * time.Millisecond,
		ScheduleRetries:    3,
		ScheduleRetryDelay: time.Second,
		ScheduleChunkDays:  7,
		FetchWorkers:       runtime.NumCPU() * 2,
		DetailPolicy:       DetailPolicyDegrade,
		StartSeason:        2015,
		EndSeason:          2025,
		SeasonStart:        "03-20",
		SeasonEnd:          "11-05",
		GameTypes:          []string{"R", "F", "D", "L", "W"},
		DefaultRestDays:    5,
		NeutralERA:         4.50,
		NeutralWHIP:        1.35,
		Trials:             100_000,
		SimWorkers:         runtime.NumCPU(),
		LowerPercentile:    0.10,
		UpperPercentile:    0.90,
		DataDir:            "data",
		FeaturesFile:       "features.csv",
		ProbabilitiesFile:  "probabilities.csv",
		ProjectionsFile:    "projections.csv",
		SnapshotsFile:      "team_stats.csv",
		ParkFactorsFile:    "",
		ModelIntercept:     0.08,
		ModelWeights: map[string]float64{
			"diff_run_diff":     0.21,
			"diff_ops":          1.10,
			"diff_whip":         -0.35,
			"diff_wins_last_10": 0.03,
			"diff_games_last_7": -0.02,
			"park_factor":       0.0,
		},
		CacheTTL:         30 * 24 * time.Hour,
		ProjectionStream: "projections.season",
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StatsBaseURL == "":
		return fmt.Errorf("%w: stats_base_url must not be empty", ErrInvalidConfig)
	case c.DetailRetries < 1 || c.ScheduleRetries < 1:
		return fmt.Errorf("%w: retries must be at least 1", ErrInvalidConfig)
	case c.ScheduleChunkDays < 1:
		return fmt.Errorf("%w: schedule_chunk_days must be positive", ErrInvalidConfig)
	case c.DetailPolicy != DetailPolicyDegrade && c.DetailPolicy != DetailPolicySkip:
		return fmt.Errorf("%w: detail_policy %q", ErrInvalidConfig, c.DetailPolicy)
	case c.EndSeason < c.StartSeason:
		return fmt.Errorf("%w: end_season %d before start_season %d", ErrInvalidConfig, c.EndSeason, c.StartSeason)
	case c.DedupeMaxSize < 0:
		return fmt.Errorf("%w: dedupe_max_size must not be negative", ErrInvalidConfig)
	case c.DefaultRestDays < 0:
		return fmt.Errorf("%w: default_rest_days must not be negative", ErrInvalidConfig)
	case c.Trials < 1:
		return fmt.Errorf("%w: trials must be positive", ErrInvalidConfig)
	case c.LowerPercentile < 0 || c.UpperPercentile > 1 || c.LowerPercentile > c.UpperPercentile:
		return fmt.Errorf("%w: percentiles must satisfy 0 <= lower <= upper <= 1", ErrInvalidConfig)
	}
	if _, err := time.Parse("01-02", c.SeasonStart); err != nil {
		return fmt.Errorf("%w: season_start %q", ErrInvalidConfig, c.SeasonStart)
	}
	if _, err := time.Parse("01-02", c.SeasonEnd); err != nil {
		return fmt.Errorf("%w: season_end %q", ErrInvalidConfig, c.SeasonEnd)
	}
	return nil
}

// Path resolves a configured file name against DataDir. Empty names stay
// empty and absolute names are returned unchanged.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
