package models

import (
	"strings"
	"time"
)

// User types accepted by the planner after normalization.
const (
	UserTypeStudent             = "student"
	UserTypeWorkingProfessional = "working_professional"
)

// Answer values. Anything else is rejected at the request boundary.
const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// Readiness labels
const (
	LabelNotReady       = "Not Ready"
	LabelAlmostReady    = "Almost Ready"
	LabelInterviewReady = "Interview Ready"
)

// UserProfile describes the candidate a plan is generated for.
type UserProfile struct {
	UserType        string `json:"user_type" binding:"required,usertype"`
	ExperienceYears int    `json:"experience_years" binding:"min=0,max=50"`
	PrimarySkill    string `json:"primary_skill" binding:"required,min=1,max=100"`
	TargetRole      string `json:"target_role" binding:"omitempty,max=100"`
	Email           string `json:"email,omitempty" binding:"omitempty,max=255"`
	Phone           string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// QuestionItem is one yes/no question of a plan together with its hidden answer.
type QuestionItem struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	StudyTopic    string `json:"study_topic"`
}

// PlanResponse for POST /interview-ready/plan
type PlanResponse struct {
	EvaluationPlan []QuestionItem `json:"evaluation_plan"`
}

// EvaluationSubmission carries the user's answers plus the correct answers and
// topics echoed back from the plan response. The four slices are parallel.
type EvaluationSubmission struct {
	Questions      []string `json:"questions" binding:"required,dive,required"`
	Answers        []string `json:"answers" binding:"required,eqfield=Questions,dive,yesno"`
	CorrectAnswers []string `json:"correct_answers" binding:"required,eqfield=Questions,dive,yesno"`
	StudyTopics    []string `json:"study_topics" binding:"required,eqfield=Questions"`
}

// Recommendation is a single roadmap entry.
type Recommendation struct {
	Priority string `json:"priority"`
	Topic    string `json:"topic"`
	Why      string `json:"why"`
}

// EvaluationResult is the scored outcome of a submission.
type EvaluationResult struct {
	ReadinessPercentage     int              `json:"readiness_percentage"`
	ReadinessLabel          string           `json:"readiness_label"`
	Strengths               []string         `json:"strengths"`
	Gaps                    []string         `json:"gaps"`
	LearningRecommendations []Recommendation `json:"learning_recommendations"`
}

// GenerateRequest for the generic passthrough endpoint
type GenerateRequest struct {
	Prompt  string `json:"prompt" binding:"required"`
	UseCase string `json:"use_case" binding:"required"`
}

// GenerateResponse for the generic passthrough endpoint
type GenerateResponse struct {
	Output string `json:"output"`
}

// ContactSubmitRequest is the contact/enroll form payload.
type ContactSubmitRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"required,max=255,contactemail"`
	Phone   string `json:"phone" binding:"required,min=8,max=20"`
	Year    string `json:"year,omitempty" binding:"omitempty,max=50"` // academic year e.g. "3rd year"
	Message string `json:"message,omitempty" binding:"omitempty,max=2000"`
}

// HealthResponse is returned by the liveness endpoints.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// StatsResponse for GET /interview-ready/stats
type StatsResponse struct {
	TotalChecks int64 `json:"total_checks"`
	TotalViews  int64 `json:"total_views"`
}

// Normalize trims answers so " Yes " compares equal to "Yes".
func (s *EvaluationSubmission) Normalize() {
	for i := range s.Answers {
		s.Answers[i] = strings.TrimSpace(s.Answers[i])
	}
	for i := range s.CorrectAnswers {
		s.CorrectAnswers[i] = strings.TrimSpace(s.CorrectAnswers[i])
	}
}

// Fields returns the non-empty form values for the contact journal.
func (r ContactSubmitRequest) Fields() map[string]any {
	return map[string]any{
		"name":    r.Name,
		"email":   r.Email,
		"phone":   r.Phone,
		"year":    r.Year,
		"message": r.Message,
	}
}

// HasContact reports whether the profile carries a way to reach the user.
func (p UserProfile) HasContact() bool {
	return strings.TrimSpace(p.Email) != "" || strings.TrimSpace(p.Phone) != ""
}

// LeadFields returns the profile as a lead journal entry.
func (p UserProfile) LeadFields() map[string]any {
	return map[string]any{
		"email":            p.Email,
		"phone":            p.Phone,
		"user_type":        p.UserType,
		"experience_years": p.ExperienceYears,
		"primary_skill":    p.PrimarySkill,
		"target_role":      p.TargetRole,
	}
}
