package performance

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/talentscore/internal/domain/scoring"
	"github.com/okian/talentscore/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithCalculator sets the score calculator, and with it the weight table.
func WithCalculator(c *scoring.Calculator) Option {
	return func(a *Aggregator) {
		if c != nil {
			a.calc = c
		}
	}
}

// WithWeights is shorthand for a calculator using w.
func WithWeights(w scoring.Weights) Option {
	return WithCalculator(scoring.NewCalculator(scoring.WithWeights(w)))
}

// WithClock sets the source of the evaluation instant.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTracer sets the tracer used for aggregation spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) {
		if t != nil {
			a.tracer = t
		}
	}
}
