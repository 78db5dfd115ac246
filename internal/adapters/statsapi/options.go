package statsapi

import (
	"net/http"
	"time"

	"github.com/okian/bullpen/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithDetailRetry sets attempts and the linear backoff step for live feeds.
func WithDetailRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.detailRetry = retryPolicy{attempts: attempts, delay: delay}
		}
	}
}

// WithScheduleRetry sets attempts and the linear backoff step for schedule
// chunks.
func WithScheduleRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.scheduleRetry = retryPolicy{attempts: attempts, delay: delay}
		}
	}
}

// WithChunkDays sets the width of each schedule request.
func WithChunkDays(days int) Option {
	return func(c *Client) {
		if days > 0 {
			c.chunkDays = days
		}
	}
}

// WithSeasonWindow sets the MM-DD calendar window scanned for each season.
func WithSeasonWindow(start, end string) Option {
	return func(c *Client) {
		if start != "" && end != "" {
			c.seasonStart, c.seasonEnd = start, end
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
