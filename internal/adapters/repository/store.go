// Package repository provides the record providers the performance
// aggregator reads from, backed by memory, PostgreSQL or MongoDB.
package repository

import (
	"context"

	"github.com/okian/talentscore/internal/domain/model"
)

// Supported storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// AssessmentProvider groups and counts a candidate's assessments.
type AssessmentProvider interface {
	// GroupCompletedByType returns one row per assessment type over the
	// records with a completion time and a score in [0,100], ordered by type.
	GroupCompletedByType(ctx context.Context, candidateID string) ([]model.TypeGroup, error)
	// CountAssessments counts every record of the candidate.
	CountAssessments(ctx context.Context, candidateID string) (int, error)
}

// InterviewProvider lists a candidate's interviews.
type InterviewProvider interface {
	// ListInterviews returns every interview, ordered by scheduled time.
	ListInterviews(ctx context.Context, candidateID string) ([]model.Interview, error)
}

// CandidateProvider looks up candidate profiles.
type CandidateProvider interface {
	// GetCandidate returns ErrNotFound if the candidate is unknown.
	GetCandidate(ctx context.Context, candidateID string) (model.Candidate, error)
}

// RecordLister lists raw assessment records.
type RecordLister interface {
	ListAssessments(ctx context.Context, candidateID string) ([]model.Assessment, error)
}

// Writer persists records. Saving an existing id replaces the record.
type Writer interface {
	SaveAssessment(ctx context.Context, a model.Assessment) error
	SaveInterview(ctx context.Context, i model.Interview) error
	SaveCandidate(ctx context.Context, c model.Candidate) error
}

// Stats holds record counts across the whole store.
type Stats struct {
	Candidates  int `json:"candidates"`
	Assessments int `json:"assessments"`
	Interviews  int `json:"interviews"`
}

// Store is the full storage contract implemented by every backend.
type Store interface {
	AssessmentProvider
	InterviewProvider
	CandidateProvider
	RecordLister
	Writer

	// Stats returns store-wide record counts.
	Stats(ctx context.Context) (Stats, error)
	// Close releases backend resources.
	Close(ctx context.Context) error
}
