// Package performance aggregates a candidate's assessment and interview
// records into a performance summary.
package performance

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/internal/domain/scoring"
	"github.com/okian/talentscore/pkg/logger"
	"github.com/okian/talentscore/pkg/metrics"
)

// Provider read operations, used in logs, metrics and wrapped errors.
const (
	OpGroupAssessments = "group_assessments"
	OpCountAssessments = "count_assessments"
	OpListInterviews   = "list_interviews"

	tracerName = "github.com/okian/talentscore/internal/domain/performance"
)

// AssessmentReader exposes the assessment reads the aggregator needs.
type AssessmentReader interface {
	// GroupCompletedByType groups completed records with a score in [0,100]
	// by type, returning average score, count and latest completion.
	GroupCompletedByType(ctx context.Context, candidateID string) ([]model.TypeGroup, error)
	// CountAssessments counts all records of the candidate, completed or not.
	CountAssessments(ctx context.Context, candidateID string) (int, error)
}

// InterviewReader exposes the interview read the aggregator needs.
type InterviewReader interface {
	ListInterviews(ctx context.Context, candidateID string) ([]model.Interview, error)
}

// Aggregator computes performance summaries. It keeps no per-call state and
// may serve concurrent requests, including for the same candidate.
type Aggregator struct {
	assessments AssessmentReader
	interviews  InterviewReader
	calc        *scoring.Calculator
	now         func() time.Time
	logger      logger.Logger
	tracer      trace.Tracer
}

// NewAggregator creates an aggregator reading from the given providers.
func NewAggregator(assessments AssessmentReader, interviews InterviewReader, opts ...Option) *Aggregator {
	if assessments == nil || interviews == nil {
		panic("performance: nil provider")
	}
	a := &Aggregator{
		assessments: assessments,
		interviews:  interviews,
		calc:        scoring.NewCalculator(),
		now:         time.Now,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("performance")
	}
	return a
}

// ComputePerformance reads the candidate's records and returns a fresh
// summary. Missing data is not an error. A failed read aborts the whole
// computation and is returned wrapped in ErrAggregationFailed.
func (a *Aggregator) ComputePerformance(ctx context.Context, candidateID string) (model.Summary, error) {
	ctx, span := a.tracer.Start(ctx, "performance.ComputePerformance",
		trace.WithAttributes(attribute.String("candidate.id", candidateID)))
	defer span.End()

	start := time.Now()
	now := a.now()

	var (
		groups     []model.TypeGroup
		total      int
		interviews []model.Interview
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.read(gctx, OpGroupAssessments, func(ctx context.Context) (err error) {
			groups, err = a.assessments.GroupCompletedByType(ctx, candidateID)
			return err
		})
	})
	g.Go(func() error {
		return a.read(gctx, OpCountAssessments, func(ctx context.Context) (err error) {
			total, err = a.assessments.CountAssessments(ctx, candidateID)
			return err
		})
	})
	g.Go(func() error {
		return a.read(gctx, OpListInterviews, func(ctx context.Context) (err error) {
			interviews, err = a.interviews.ListInterviews(ctx, candidateID)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		metrics.RecordAggregationFailure()
		metrics.RecordErrorByComponent("performance", "provider_read")
		a.logger.Error(ctx, "performance aggregation failed",
			logger.String("op", "performance.compute"),
			logger.String("candidateId", candidateID),
			logger.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return model.Summary{}, fmt.Errorf("%w: candidate %s: %w", ErrAggregationFailed, candidateID, err)
	}

	summary := a.calc.Summarize(scoring.Input{
		Groups:           groups,
		TotalAssessments: total,
		Interviews:       a.validInterviews(ctx, candidateID, interviews),
		Now:              now,
	})

	metrics.RecordAggregation(string(summary.SkillLevel), float64(time.Since(start).Milliseconds()))
	span.SetAttributes(
		attribute.Float64("performance.overall_score", summary.OverallScore),
		attribute.String("performance.skill_level", string(summary.SkillLevel)),
	)
	a.logger.Debug(ctx, "performance computed",
		logger.String("candidateId", candidateID),
		logger.Float64("overallScore", summary.OverallScore),
		logger.Int("totalAssessments", summary.TotalAssessments),
		logger.Int("interviews", summary.Interviews.Total),
	)

	return summary, nil
}

// ZeroSummary is the display fallback callers substitute when
// ComputePerformance fails.
func ZeroSummary() model.Summary { return scoring.Zero() }

// Weights returns the weight table in use.
func (a *Aggregator) Weights() scoring.Weights { return a.calc.Weights() }

// read runs one provider call, timing it and tagging any error with op.
func (a *Aggregator) read(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	metrics.RecordProviderReadLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordProviderReadError(op)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// validInterviews drops malformed interview rows so they cannot skew the
// statistics. Order of the remaining records is preserved.
func (a *Aggregator) validInterviews(ctx context.Context, candidateID string, in []model.Interview) []model.Interview {
	out := in[:0:0]
	for i := range in {
		if err := in[i].ValidForStats(); err != nil {
			metrics.RecordInvalidRecordSkipped("interview")
			a.logger.Warn(ctx, "skipping malformed interview",
				logger.String("candidateId", candidateID),
				logger.String("interviewId", in[i].ID),
				logger.Error(err),
			)
			continue
		}
		out = append(out, in[i])
	}
	return out
}
