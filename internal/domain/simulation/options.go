package simulation

import "github.com/okian/bullpen/pkg/logger"

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithWorkers sets the number of concurrent replay workers.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSeed fixes the random stream. Zero draws a fresh seed per Simulate call.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithPercentiles sets the lower and upper summary percentiles, as fractions.
func WithPercentiles(lower, upper float64) Option {
	return func(s *Simulator) {
		if lower >= 0 && upper <= 1 && lower <= upper {
			s.lower = lower
			s.upper = upper
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}
