// Package predict defines the model contract that turns a feature vector into
// a home-win probability.
package predict

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/okian/bullpen/internal/domain/features"
	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/metrics"
)

// Default logistic model constants.
const (
	defaultIntercept = 0.0
	minProbability   = 0.0
	maxProbability   = 1.0
)

// Predictor estimates the probability that the home side wins.
type Predictor interface {
	// PredictHomeWin returns a probability in [0, 1], honoring ctx for
	// cancellation.
	PredictHomeWin(ctx context.Context, v features.Vector) (float64, error)
}

// Option applies a configuration option to the LogisticPredictor.
type Option func(*LogisticPredictor)

// WithIntercept sets the bias term.
func WithIntercept(b float64) Option {
	return func(p *LogisticPredictor) {
		p.intercept = b
	}
}

// WithWeights sets per-feature coefficients. Zero weights are dropped.
func WithWeights(weights map[string]float64) Option {
	return func(p *LogisticPredictor) {
		p.weights = make(map[string]float64, len(weights))
		for name, w := range weights {
			if w != 0 {
				p.weights[name] = w
			}
		}
	}
}

// LogisticPredictor is a linear model squashed through the logistic function.
// Features without a weight are ignored.
type LogisticPredictor struct {
	intercept float64
	weights   map[string]float64
	order     []string // weighted names, summed in this order
}

// NewLogisticPredictor creates a predictor with configuration options.
func NewLogisticPredictor(opts ...Option) *LogisticPredictor {
	p := &LogisticPredictor{
		intercept: defaultIntercept,
		weights:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.order = sumOrder(p.weights)
	return p
}

// sumOrder lists the weighted names in features.VectorNames order, then any
// other names sorted, so z is summed identically on every call.
func sumOrder(weights map[string]float64) []string {
	order := make([]string, 0, len(weights))
	for _, name := range features.VectorNames {
		if _, ok := weights[name]; ok {
			order = append(order, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(weights)) {
		if !slices.Contains(features.VectorNames, name) {
			order = append(order, name)
		}
	}
	return order
}

// PredictHomeWin computes sigmoid(intercept + w·v).
func (p *LogisticPredictor) PredictHomeWin(ctx context.Context, v features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	z := p.intercept
	for _, name := range p.order {
		w := p.weights[name]
		x, ok := v[name]
		if !ok {
			continue
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("feature %s=%v: %w", name, x, ErrInvalidFeature)
		}
		z += w * x
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}

// Table scores every row and returns the probability table consumed by the
// simulator, in row order. Any failure aborts the table.
func Table(ctx context.Context, p Predictor, rows []model.FeatureRow) ([]model.Matchup, error) {
	out := make([]model.Matchup, 0, len(rows))
	for _, row := range rows {
		prob, err := p.PredictHomeWin(ctx, features.VectorOf(row))
		if err != nil {
			metrics.RecordPrediction("error")
			return out, fmt.Errorf("game %d: %w", row.GameID, err)
		}
		if math.IsNaN(prob) || prob < minProbability || prob > maxProbability {
			metrics.RecordPrediction("invalid")
			return out, fmt.Errorf("game %d probability %v: %w", row.GameID, prob, ErrInvalidProbability)
		}
		metrics.RecordPrediction("ok")
		out = append(out, model.Matchup{
			GameID:      row.GameID,
			Date:        row.Date,
			HomeTeam:    row.HomeTeam,
			AwayTeam:    row.AwayTeam,
			HomeWinProb: prob,
		})
	}
	return out, nil
}
