package model

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RecordKind names the kind of record carried by an Envelope.
type RecordKind string

// Record kinds accepted by ingestion.
const (
	KindAssessment RecordKind = "assessment"
	KindInterview  RecordKind = "interview"
	KindCandidate  RecordKind = "candidate"
)

// Envelope carries exactly one record through the ingestion queue.
type Envelope struct {
	Kind       RecordKind
	Assessment *Assessment
	Interview  *Interview
	Candidate  *Candidate
}

// AssessmentEnvelope wraps an assessment.
func AssessmentEnvelope(a Assessment) Envelope {
	return Envelope{Kind: KindAssessment, Assessment: &a}
}

// InterviewEnvelope wraps an interview.
func InterviewEnvelope(i Interview) Envelope {
	return Envelope{Kind: KindInterview, Interview: &i}
}

// CandidateEnvelope wraps a candidate.
func CandidateEnvelope(c Candidate) Envelope {
	return Envelope{Kind: KindCandidate, Candidate: &c}
}

// ID returns the id of the wrapped record, or "" if the envelope is empty.
func (e Envelope) ID() string {
	switch {
	case e.Kind == KindAssessment && e.Assessment != nil:
		return e.Assessment.ID
	case e.Kind == KindInterview && e.Interview != nil:
		return e.Interview.ID
	case e.Kind == KindCandidate && e.Candidate != nil:
		return e.Candidate.ID
	default:
		return ""
	}
}

// CandidateID returns the candidate the wrapped record belongs to.
func (e Envelope) CandidateID() string {
	switch {
	case e.Kind == KindAssessment && e.Assessment != nil:
		return e.Assessment.CandidateID
	case e.Kind == KindInterview && e.Interview != nil:
		return e.Interview.CandidateID
	case e.Kind == KindCandidate && e.Candidate != nil:
		return e.Candidate.ID
	default:
		return ""
	}
}

// Fingerprint hashes the JSON encoding of the wrapped record. Two envelopes
// share a fingerprint only when every field of their records is equal.
func (e Envelope) Fingerprint() string {
	var rec any
	switch e.Kind {
	case KindAssessment:
		rec = e.Assessment
	case KindInterview:
		rec = e.Interview
	case KindCandidate:
		rec = e.Candidate
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}
