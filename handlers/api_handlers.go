package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentormuni-server/exam"
	"mentormuni-server/journal"
	"mentormuni-server/metrics"
	"mentormuni-server/models"
	"mentormuni-server/stats"
)

// Version reported by the health endpoints.
const Version = "1.0.0"

// PlanGenerator produces a question battery for a profile.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile models.UserProfile) ([]models.QuestionItem, error)
}

// TextGenerator answers a free-form prompt for a use case.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, useCase string) (string, error)
}

// Root returns the welcome message.
// GET /
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to MentorMuni API!"})
	}
}

// Health reports liveness.
// GET /health, GET /api/v1/health
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   Version,
		})
	}
}

// Ping
// GET /api/v1/health/ping
func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	}
}

// GeneratePlan builds an interview readiness plan for the submitted profile.
// Profiles carrying an email or phone are recorded as leads; a failed lead
// write never fails the request.
// POST /interview-ready/plan
func GeneratePlan(planner PlanGenerator, recorder journal.Recorder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var profile models.UserProfile
		if err := c.ShouldBindJSON(&profile); err != nil {
			respondError(c, logger, bindError(err), "")
			return
		}
		if err := profile.Normalize(); err != nil {
			respondError(c, logger, invalidField("user_type", err.Error()), "")
			return
		}

		items, err := planner.GeneratePlan(c.Request.Context(), profile)
		if err != nil {
			respondError(c, logger, err, "Failed to generate evaluation plan. Please try again later.")
			return
		}

		if profile.HasContact() {
			if err := recorder.Record(c.Request.Context(), journal.KindLead, profile.LeadFields()); err != nil {
				logger.Warn("failed to store lead", zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, models.PlanResponse{EvaluationPlan: items})
	}
}

// EvaluateAnswers scores a submission against its echoed correct answers.
// POST /interview-ready/evaluate
func EvaluateAnswers(evaluator *exam.Evaluator, counters *stats.Counters, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub models.EvaluationSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			respondError(c, logger, bindError(err), "")
			return
		}
		sub.Normalize()

		result := evaluator.Evaluate(sub)
		counters.IncrementChecks()
		metrics.Evaluations.WithLabelValues(result.ReadinessLabel).Inc()

		logger.Debug("evaluation complete",
			zap.Int("questions", len(sub.Questions)),
			zap.Int("readiness_percentage", result.ReadinessPercentage))
		c.JSON(http.StatusOK, result)
	}
}

// RecordView counts a landing page view.
// POST /interview-ready/view
func RecordView(counters *stats.Counters) gin.HandlerFunc {
	return func(c *gin.Context) {
		counters.IncrementViews()
		c.JSON(http.StatusOK, models.StatsResponse{TotalChecks: counters.Checks(), TotalViews: counters.Views()})
	}
}

// GetStats
// GET /interview-ready/stats
func GetStats(counters *stats.Counters) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatsResponse{TotalChecks: counters.Checks(), TotalViews: counters.Views()})
	}
}

// GenerateText proxies a prompt to the model.
// POST /api/v1/ai/generate
func GenerateText(assistant TextGenerator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, logger, bindError(err), "")
			return
		}

		out, err := assistant.Generate(c.Request.Context(), req.Prompt, req.UseCase)
		if err != nil {
			respondError(c, logger, err, "Failed to generate a response. Please try again later.")
			return
		}
		c.JSON(http.StatusOK, models.GenerateResponse{Output: out})
	}
}

// SubmitContact stores a contact form. Unlike leads, a storage failure is
// reported to the caller.
// POST /api/v1/contact
func SubmitContact(recorder journal.Recorder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ContactSubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, logger, bindError(err), "")
			return
		}

		if err := recorder.Record(c.Request.Context(), journal.KindContact, req.Fields()); err != nil {
			respondError(c, logger, err, "Could not save your request. Please try again later.")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Thank you! We will get back to you soon."})
	}
}
