// Package seed generates synthetic candidates with assessment and interview
// histories and submits them to a running service or a store.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/logger"
)

// Performer profiles. Each draws assessment scores from its own band.
const (
	profileAverage = iota
	profileHigh
	profileLow
	profileElite
	profileStruggling
	profileMixed
	profileCount
)

type band struct{ lo, span float64 }

var profileBands = [profileCount]band{
	profileAverage:    {lo: 45, span: 25},
	profileHigh:       {lo: 70, span: 20},
	profileLow:        {lo: 20, span: 25},
	profileElite:      {lo: 88, span: 12},
	profileStruggling: {lo: 0, span: 20},
	profileMixed:      {lo: 0, span: 100},
}

const (
	incompleteRatio = 0.15
	canceledRatio   = 0.1
	historyDays     = 90
	upcomingDays    = 21
)

var (
	defaultTypes = []string{"technical", "softskills", "industry"}
	interviewers = []string{"Alex Morgan", "Sam Lee", "Jordan Park", "Riley Chen", "Casey Diaz"}
	firstNames   = []string{"Ada", "Grace", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Frances"}
	lastNames    = []string{"Lovelace", "Hopper", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Allen"}
)

// Generator builds synthetic records.
type Generator struct {
	seed           uint64
	seeded         bool
	minAssessments int
	maxAssessments int
	minInterviews  int
	maxInterviews  int
	types          []string
	now            func() time.Time
}

// NewGenerator creates a generator with default ranges.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		minAssessments: 3,
		maxAssessments: 12,
		minInterviews:  0,
		maxInterviews:  4,
		types:          defaultTypes,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns n candidates, each followed by its assessments and
// interviews, in submission order.
func (g *Generator) Generate(ctx context.Context, n int) ([]model.Envelope, error) {
	logger.Get().Info(ctx, "generating candidates", logger.Int("candidates", n))

	rng := g.rng()
	now := g.now().UTC()
	out := make([]model.Envelope, 0, n*(1+g.maxAssessments+g.maxInterviews))
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate candidate %d: %w", i, err)
		}
		out = append(out, g.candidate(rng, now)...)
	}

	logger.Get().Info(ctx, "generated records", logger.Int("records", len(out)))
	return out, nil
}

func (g *Generator) rng() *rand.Rand {
	if g.seeded {
		return rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (g *Generator) candidate(rng *rand.Rand, now time.Time) []model.Envelope {
	c := model.Candidate{
		ID:   g.newID(rng),
		Name: firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
	}
	c.Email = emailFor(c.Name, c.ID)
	out := []model.Envelope{model.CandidateEnvelope(c)}

	b := profileBands[rng.IntN(profileCount)]
	for i, n := 0, between(rng, g.minAssessments, g.maxAssessments); i < n; i++ {
		a := model.Assessment{
			ID:          g.newID(rng),
			CandidateID: c.ID,
			Type:        g.types[rng.IntN(len(g.types))],
			Score:       round1(b.lo + rng.Float64()*b.span),
		}
		if rng.Float64() >= incompleteRatio {
			t := now.Add(-time.Duration(rng.IntN(historyDays*24)) * time.Hour)
			a.CompletedAt = &t
		}
		out = append(out, model.AssessmentEnvelope(a))
	}

	for i, n := 0, between(rng, g.minInterviews, g.maxInterviews); i < n; i++ {
		out = append(out, model.InterviewEnvelope(g.interview(rng, now, c.ID, b)))
	}
	return out
}

func (g *Generator) interview(rng *rand.Rand, now time.Time, candidateID string, b band) model.Interview {
	iv := model.Interview{
		ID:              g.newID(rng),
		CandidateID:     candidateID,
		Type:            g.types[rng.IntN(len(g.types))],
		InterviewerName: interviewers[rng.IntN(len(interviewers))],
	}
	switch r := rng.Float64(); {
	case r < canceledRatio:
		iv.Status = model.InterviewCanceled
		iv.ScheduledAt = now.Add(-time.Duration(rng.IntN(historyDays*24)) * time.Hour)
	case r < 0.5:
		iv.Status = model.InterviewScheduled
		iv.ScheduledAt = now.Add(time.Duration(1+rng.IntN(upcomingDays*24)) * time.Hour)
	default:
		iv.Status = model.InterviewCompleted
		iv.ScheduledAt = now.Add(-time.Duration(1+rng.IntN(historyDays*24)) * time.Hour)
		s := round1(b.lo + rng.Float64()*b.span)
		iv.Score = &s
	}
	return iv
}

// newID returns a random UUID, drawn from rng when the generator is seeded
// so that seeded runs are reproducible.
func (g *Generator) newID(rng *rand.Rand) string {
	if !g.seeded {
		return uuid.NewString()
	}
	var b [16]byte
	for i := 0; i < len(b); i += 8 {
		v := rng.Uint64()
		for j := 0; j < 8; j++ {
			b[i+j] = byte(v >> (8 * j))
		}
	}
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.NewString()
	}
	// Stamp version 4 and the RFC 4122 variant.
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id.String()
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func emailFor(name, id string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", ".") + "." + id[:8] + "@example.com"
}
