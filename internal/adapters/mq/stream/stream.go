// Package stream publishes season projections to a Redis stream so other
// services can follow each simulation run.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default stream constants.
const (
	DefaultStream = "projections.season"
	DefaultMaxLen = 10_000
	sinkName      = "redis_stream"
)

// Message is one team's projection as published on the stream.
type Message struct {
	RunID       string           `json:"run_id"`
	Season      int              `json:"season"`
	Trials      int              `json:"trials"`
	PublishedAt time.Time        `json:"published_at"`
	Projection  model.Projection `json:"projection"`
}

// Publisher appends projection messages to a stream.
type Publisher struct {
	redis  *redis.Client
	stream string
	maxLen int64
}

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithStream sets the stream key.
func WithStream(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.stream = name
		}
	}
}

// WithMaxLen caps the stream length approximately. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(p *Publisher) {
		if n >= 0 {
			p.maxLen = n
		}
	}
}

// NewPublisher creates a publisher on client.
func NewPublisher(client *redis.Client, opts ...Option) *Publisher {
	p := &Publisher{redis: client, stream: DefaultStream, maxLen: DefaultMaxLen}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes one entry per projection in a single pipeline.
func (p *Publisher) Publish(ctx context.Context, runID string, season, trials int, projections []model.Projection) error {
	if len(projections) == 0 {
		return nil
	}
	now := time.Now().UTC()
	pipe := p.redis.Pipeline()
	for _, proj := range projections {
		msg := Message{RunID: runID, Season: season, Trials: trials, PublishedAt: now, Projection: proj}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal stream message: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: p.maxLen > 0,
			Values: map[string]interface{}{
				"run_id":  runID,
				"team_id": proj.TeamID,
				"data":    data,
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordSinkWrite(sinkName, "error", len(projections))
		return fmt.Errorf("redis pipeline exec for stream: %w", err)
	}
	metrics.RecordSinkWrite(sinkName, "ok", len(projections))
	return nil
}
