package features

import (
	"github.com/okian/bullpen/internal/domain/dedupe"
	"github.com/okian/bullpen/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDefaultRest sets the rest reported for a team's first game of a season.
func WithDefaultRest(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.defaultRest = days
		}
	}
}

// WithNeutralPitching sets the ERA and WHIP reported for unseen pitchers.
func WithNeutralPitching(era, whip float64) Option {
	return func(e *Engine) {
		if era > 0 && whip > 0 {
			e.neutralERA = era
			e.neutralWHIP = whip
		}
	}
}

// WithSkipMissingDetail excludes games without a box score instead of
// emitting a degraded row.
func WithSkipMissingDetail(skip bool) Option {
	return func(e *Engine) {
		e.skipMissing = skip
	}
}

// WithParkFactors sets the venue park-factor table.
func WithParkFactors(p ParkFactors) Option {
	return func(e *Engine) {
		e.parks = p
	}
}

// WithGameTypes restricts Prepare to the given game types.
func WithGameTypes(types []string) Option {
	return func(e *Engine) {
		if len(types) > 0 {
			e.gameTypes = types
		}
	}
}

// WithDeduper replaces the game-id deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Engine) {
		if d != nil {
			e.deduper = d
		}
	}
}

// WithDedupeLimit gives each engine its own deduper remembering at most n
// game ids, oldest evicted first. n <= 0 keeps every id.
func WithDedupeLimit(n int) Option {
	return func(e *Engine) {
		e.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(n))
	}
}
