package model

import "time"

// SkillLevel is the coarse classification derived from an overall score.
type SkillLevel string

// Skill levels in ascending order.
const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillExpert       SkillLevel = "Expert"
)

// TypeStats is the per-category slice of a Summary.
type TypeStats struct {
	AvgScore float64 `json:"avgScore"`
	Count    int     `json:"count"`
	Weight   float64 `json:"weight"`
}

// InterviewStats summarizes a candidate's interviews. It never feeds into
// the overall score.
type InterviewStats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Upcoming  int     `json:"upcoming"`
	AvgScore  float64 `json:"avgScore"`
}

// Summary is the derived performance view of one candidate. It is rebuilt
// on every request and never stored. JSON names are part of the API contract.
type Summary struct {
	OverallScore         float64              `json:"overallScore"`
	SkillLevel           SkillLevel           `json:"skillLevel"`
	TotalAssessments     int                  `json:"totalAssessments"`
	CompletedAssessments int                  `json:"completedAssessments"`
	ByType               map[string]TypeStats `json:"byType"`
	LastCompletedAt      *time.Time           `json:"lastCompletedAt"`
	Interviews           InterviewStats       `json:"interviews"`
}

// Dashboard bundles a candidate's profile, raw records and summary.
type Dashboard struct {
	Candidate          Candidate    `json:"candidate"`
	Assessments        []Assessment `json:"assessments"`
	Interviews         []Interview  `json:"interviews"`
	OverallPerformance Summary      `json:"overallPerformance"`
}
