// Package repository persists pipeline outputs and serves them back to readers.
package repository

import (
	"context"

	"github.com/okian/bullpen/internal/domain/model"
)

// Sink receives the outputs of one run. RunID groups rows written together.
type Sink interface {
	WriteFeatures(ctx context.Context, runID string, rows []model.FeatureRow) error
	WriteSnapshots(ctx context.Context, runID string, snapshots []model.TeamSnapshot) error
	WriteProjections(ctx context.Context, runID string, season int, projections []model.Projection) error
}

// Store provides read access to the latest projections and team snapshots.
type Store interface {
	// TopN returns up to n projections ordered by mean wins desc, then team id.
	TopN(ctx context.Context, n int) ([]model.Projection, error)

	// Projection returns one team's projection.
	// Returns ErrNotFound if the team was not simulated.
	Projection(ctx context.Context, teamID int) (model.Projection, error)

	// Snapshot returns one team's latest state.
	// Returns ErrNotFound if the team was never tracked.
	Snapshot(ctx context.Context, teamID int) (model.TeamSnapshot, error)

	// Snapshots returns every team's latest state ordered by team id.
	Snapshots(ctx context.Context) ([]model.TeamSnapshot, error)

	// Count returns the number of projected teams.
	Count(ctx context.Context) int
}

// MultiSink fans writes out to several sinks. The first failure is returned
// after every sink has been tried.
type MultiSink []Sink

// WriteFeatures implements Sink.
func (m MultiSink) WriteFeatures(ctx context.Context, runID string, rows []model.FeatureRow) error {
	var first error
	for _, s := range m {
		if err := s.WriteFeatures(ctx, runID, rows); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteSnapshots implements Sink.
func (m MultiSink) WriteSnapshots(ctx context.Context, runID string, snapshots []model.TeamSnapshot) error {
	var first error
	for _, s := range m {
		if err := s.WriteSnapshots(ctx, runID, snapshots); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteProjections implements Sink.
func (m MultiSink) WriteProjections(ctx context.Context, runID string, season int, projections []model.Projection) error {
	var first error
	for _, s := range m {
		if err := s.WriteProjections(ctx, runID, season, projections); err != nil && first == nil {
			first = err
		}
	}
	return first
}
