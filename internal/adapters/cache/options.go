package cache

import (
	"time"

	"github.com/okian/bullpen/pkg/logger"
)

// Option applies a configuration option to the BoxScoreCache.
type Option func(*BoxScoreCache)

// WithTTL sets the expiry of new entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *BoxScoreCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *BoxScoreCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *BoxScoreCache) {
		if l != nil {
			c.logger = l
		}
	}
}
