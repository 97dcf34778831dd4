// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Score bounds shared by assessments and interviews.
const (
	MinScore = 0
	MaxScore = 100
)

// ErrInvalidRecord marks a record that failed field validation.
var ErrInvalidRecord = errors.New("invalid record")

// InterviewStatus is the lifecycle state of an interview.
type InterviewStatus string

// Known interview states.
const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCanceled  InterviewStatus = "canceled"
)

// Assessment is a single assessment attempt by a candidate.
// A nil CompletedAt means the assessment has not been completed yet.
type Assessment struct {
	ID          string     `json:"id" bson:"_id" gorm:"column:id;type:text;primaryKey"`
	CandidateID string     `json:"candidateId" bson:"candidateId" gorm:"column:candidate_id;type:text;not null;index:idx_assessments_candidate_completed;index:idx_assessments_candidate_type" validate:"required"`
	Type        string     `json:"type" bson:"type" gorm:"column:type;type:text;not null;index:idx_assessments_candidate_type" validate:"required"`
	Score       float64    `json:"score" bson:"score" gorm:"column:score;type:double precision;not null" validate:"gte=0,lte=100"`
	CompletedAt *time.Time `json:"completedAt" bson:"completedAt" gorm:"column:completed_at;index:idx_assessments_candidate_completed"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName binds Assessment to its table.
func (Assessment) TableName() string { return "assessments" }

// Completed reports whether the assessment has a completion timestamp.
func (a *Assessment) Completed() bool { return a.CompletedAt != nil }

// Interview is a scheduled, held or canceled interview for a candidate.
// Score is nil until the interview has been scored.
type Interview struct {
	ID              string          `json:"id" bson:"_id" gorm:"column:id;type:text;primaryKey"`
	CandidateID     string          `json:"candidateId" bson:"candidateId" gorm:"column:candidate_id;type:text;not null;index" validate:"required"`
	ScheduledAt     time.Time       `json:"scheduledAt" bson:"scheduledAt" gorm:"column:scheduled_at;not null" validate:"required"`
	Type            string          `json:"type,omitempty" bson:"type,omitempty" gorm:"column:type;type:text"`
	Status          InterviewStatus `json:"status" bson:"status" gorm:"column:status;type:text;not null;default:'scheduled'" validate:"required,oneof=scheduled completed canceled"`
	Score           *float64        `json:"score" bson:"score,omitempty" gorm:"column:score;type:double precision" validate:"omitempty,gte=0,lte=100"`
	InterviewerName string          `json:"interviewerName" bson:"interviewerName" gorm:"column:interviewer_name;type:text;not null" validate:"required"`
}

// TableName binds Interview to its table.
func (Interview) TableName() string { return "interviews" }

// Candidate is the minimal profile needed to render a dashboard.
type Candidate struct {
	ID    string `json:"id" bson:"_id" gorm:"column:id;type:text;primaryKey" validate:"required"`
	Name  string `json:"name" bson:"name" gorm:"column:name;type:text;not null" validate:"required"`
	Email string `json:"email,omitempty" bson:"email,omitempty" gorm:"column:email;type:text" validate:"omitempty,email"`
}

// TableName binds Candidate to its table.
func (Candidate) TableName() string { return "candidates" }

// TypeGroup is one row of the completed-assessment group-by: the average,
// count and latest completion of valid completed records of one type.
type TypeGroup struct {
	Type            string     `bson:"_id" gorm:"column:type"`
	AvgScore        float64    `bson:"avgScore" gorm:"column:avg_score"`
	Count           int        `bson:"count" gorm:"column:count"`
	LastCompletedAt *time.Time `bson:"lastCompletedAt" gorm:"column:last_completed_at"`
}

var validate = validator.New()

// Validate checks field presence and ranges on an assessment.
func (a *Assessment) Validate() error { return validateRecord(a) }

// Validate checks field presence, status and score range on an interview.
func (i *Interview) Validate() error { return validateRecord(i) }

// ValidForStats checks only the fields interview statistics depend on:
// candidate id, scheduled time, status and score range.
func (i *Interview) ValidForStats() error {
	if err := validate.StructPartial(i, statsFields...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

var statsFields = []string{"CandidateID", "ScheduledAt", "Status", "Score"}

// Validate checks field presence on a candidate.
func (c *Candidate) Validate() error { return validateRecord(c) }

// ValidCompleted reports whether an assessment takes part in grouping:
// it must be completed and its score must lie in [MinScore, MaxScore].
func (a *Assessment) ValidCompleted() bool {
	return a.CompletedAt != nil && a.Score >= MinScore && a.Score <= MaxScore
}

func validateRecord(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}
