// Package scoring turns grouped assessment results and interview records into
// a candidate performance summary.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
)

// Skill level thresholds; each bound is inclusive.
const (
	beginnerMax     = 40
	intermediateMax = 60
	advancedMax     = 80

	maxScoreValue = 100
	roundFactor   = 100
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights sets the category weight table.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		c.weights = w
	}
}

// WithWeightsFromConfig builds the weight table from a configuration map.
// An empty map keeps the defaults.
func WithWeightsFromConfig(weights map[string]float64) Option {
	return func(c *Calculator) {
		if len(weights) > 0 {
			c.weights = NewWeights(weights)
		}
	}
}

// Input is the snapshot a summary is computed from.
type Input struct {
	// Groups are the completed, score-valid assessments grouped by type.
	Groups []model.TypeGroup
	// TotalAssessments counts every assessment record of the candidate.
	TotalAssessments int
	// Interviews are all interview records of the candidate.
	Interviews []model.Interview
	// Now is the evaluation instant used to classify upcoming interviews.
	Now time.Time
}

// Calculator computes summaries with a fixed weight table. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator using DefaultWeights unless overridden.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Weights returns the calculator's weight table.
func (c *Calculator) Weights() Weights { return c.weights }

// Summarize builds the performance summary for one candidate.
func (c *Calculator) Summarize(in Input) model.Summary {
	interviews := InterviewStatsFor(in.Interviews, in.Now)

	if in.TotalAssessments == 0 && len(in.Interviews) == 0 {
		return Zero()
	}

	groups := make([]model.TypeGroup, 0, len(in.Groups))
	for _, g := range in.Groups {
		if g.Count > 0 {
			groups = append(groups, g)
		}
	}

	if len(groups) == 0 {
		s := Zero()
		s.TotalAssessments = in.TotalAssessments
		s.Interviews = interviews
		return s
	}

	// Stable order keeps the "first encountered wins" tie rule reproducible.
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Type < groups[j].Type })

	byType := make(map[string]model.TypeStats, len(groups))
	var (
		weightedSum float64
		weightTotal float64
		completed   int
		last        *time.Time
	)
	for _, g := range groups {
		weight := c.weights.Weight(g.Type)
		avg := Round2(g.AvgScore)
		byType[g.Type] = model.TypeStats{AvgScore: avg, Count: g.Count, Weight: weight}
		weightedSum += avg * weight
		weightTotal += weight
		completed += g.Count

		if g.LastCompletedAt != nil && (last == nil || g.LastCompletedAt.After(*last)) {
			t := *g.LastCompletedAt
			last = &t
		}
	}

	// With no weight mass the factor stays 1, so the score collapses to the
	// weighted sum, which is 0 because every present category weighs 0.
	factor := 1.0
	if weightTotal != 0 {
		factor = 1 / weightTotal
	}
	overall := Round2(clamp(weightedSum * factor))

	return model.Summary{
		OverallScore:         overall,
		SkillLevel:           SkillLevelFor(overall),
		TotalAssessments:     in.TotalAssessments,
		CompletedAssessments: completed,
		ByType:               byType,
		LastCompletedAt:      last,
		Interviews:           interviews,
	}
}

// InterviewStatsFor derives interview counts relative to now. Completed and
// upcoming are computed independently and may overlap.
func InterviewStatsFor(interviews []model.Interview, now time.Time) model.InterviewStats {
	var (
		completed int
		upcoming  int
		sum       float64
	)
	for i := range interviews {
		iv := &interviews[i]
		if iv.Score != nil {
			completed++
			sum += *iv.Score
		}
		if iv.ScheduledAt.After(now) {
			upcoming++
		}
	}
	avg := 0.0
	if completed > 0 {
		avg = Round2(sum / float64(completed))
	}
	return model.InterviewStats{
		Total:     len(interviews),
		Completed: completed,
		Upcoming:  upcoming,
		AvgScore:  avg,
	}
}

// SkillLevelFor maps an overall score to its skill level.
func SkillLevelFor(score float64) model.SkillLevel {
	switch {
	case score <= beginnerMax:
		return model.SkillBeginner
	case score <= intermediateMax:
		return model.SkillIntermediate
	case score <= advancedMax:
		return model.SkillAdvanced
	default:
		return model.SkillExpert
	}
}

// Zero returns the canonical empty summary.
func Zero() model.Summary {
	return model.Summary{
		OverallScore: 0,
		SkillLevel:   SkillLevelFor(0),
		ByType:       map[string]model.TypeStats{},
	}
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*roundFactor) / roundFactor
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScoreValue, v))
}
