package seed

import "time"

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generated data reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.seeded = true
	}
}

// WithAssessmentsPerCandidate sets the inclusive range of assessments
// generated for each candidate.
func WithAssessmentsPerCandidate(lo, hi int) Option {
	return func(g *Generator) {
		if lo >= 0 && hi >= lo {
			g.minAssessments, g.maxAssessments = lo, hi
		}
	}
}

// WithInterviewsPerCandidate sets the inclusive range of interviews
// generated for each candidate.
func WithInterviewsPerCandidate(lo, hi int) Option {
	return func(g *Generator) {
		if lo >= 0 && hi >= lo {
			g.minInterviews, g.maxInterviews = lo, hi
		}
	}
}

// WithTypes sets the assessment types to draw from.
func WithTypes(types ...string) Option {
	return func(g *Generator) {
		if len(types) > 0 {
			g.types = types
		}
	}
}

// WithClock sets the instant records are generated around.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}
