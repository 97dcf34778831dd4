package scoring

import "math"

// Default category weights. They need not sum to 1.
const (
	DefaultTechnicalWeight  = 0.4
	DefaultSoftSkillsWeight = 0.3
	DefaultIndustryWeight   = 0.3
)

// Weights is an immutable category -> weight table. Categories that are not
// listed weigh 0.
type Weights struct {
	m map[string]float64
}

// NewWeights copies w into a Weights table. Negative, NaN and infinite
// weights are dropped so the table stays non-negative.
func NewWeights(w map[string]float64) Weights {
	m := make(map[string]float64, len(w))
	for category, weight := range w {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			continue
		}
		m[category] = weight
	}
	return Weights{m: m}
}

// DefaultWeights returns the standard technical/softskills/industry table.
func DefaultWeights() Weights {
	return NewWeights(map[string]float64{
		"technical":  DefaultTechnicalWeight,
		"softskills": DefaultSoftSkillsWeight,
		"industry":   DefaultIndustryWeight,
	})
}

// Weight returns the weight of category, or 0 when it is not listed.
func (w Weights) Weight(category string) float64 {
	return w.m[category]
}

// Map returns a copy of the table.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(w.m))
	for c, v := range w.m {
		out[c] = v
	}
	return out
}
