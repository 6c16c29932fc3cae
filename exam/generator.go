package exam

import (
	"context"
	_ "embed"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"mentormuni-server/guard"
	"mentormuni-server/llm"
	applog "mentormuni-server/logger"
	"mentormuni-server/metrics"
	"mentormuni-server/models"
	"mentormuni-server/utils"
)

const (
	// QuestionCount is the target size of a plan.
	QuestionCount = 15
	// BandSize is the number of questions per thematic band.
	BandSize = 5
	// MaxYesPercent caps the share of "Yes" correct answers requested from the model.
	MaxYesPercent = 60

	planMaxTokens    = 1200
	defaultMaxLogLen = 200
)

//go:embed prompt.md
var promptTemplate string

// Planner generates interview plans through a guarded LLM call.
type Planner struct {
	generator llm.Generator
	guard     *guard.Layer
	logger    *zap.Logger
	maxLogLen int
}

// NewPlanner wires a Planner. The guard layer bounds every provider call.
func NewPlanner(generator llm.Generator, layer *guard.Layer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if layer == nil {
		layer = guard.NewLayer(guard.DefaultTimeout, guard.DefaultMaxRetries, logger)
	}
	return &Planner{
		generator: generator,
		guard:     layer,
		logger:    applog.WithModel(logger, "", generator.Model()),
		maxLogLen: defaultMaxLogLen,
	}
}

// GeneratePlan asks the model for a question battery tailored to profile.
// Only guard.ErrTimeout and guard.ErrServiceUnavailable are returned as
// errors; unusable model output degrades to the fallback item.
func (p *Planner) GeneratePlan(ctx context.Context, profile models.UserProfile) ([]models.QuestionItem, error) {
	prompt := BuildPrompt(profile)

	p.logger.Debug("plan generation request",
		zap.String("user_type", profile.UserType),
		zap.String("primary_skill", profile.PrimarySkill),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	start := time.Now()
	raw, err := guard.Do(ctx, p.guard, func(ctx context.Context) (string, error) {
		resp, err := p.generator.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: planMaxTokens})
		if err != nil {
			return "", err
		}
		if resp.TotalTokens > 0 {
			p.logger.Info("LLM tokens used", zap.Int32("total_tokens", resp.TotalTokens))
		}
		return resp.Text, nil
	})
	metrics.LLMCallDuration.WithLabelValues("plan", guard.Outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	p.logger.Debug("plan generation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	res := ParsePlan(raw)
	if res.Discarded > 0 {
		metrics.PlanItemsDiscarded.Add(float64(res.Discarded))
	}
	if res.Fallback {
		p.logger.Warn("model output had no usable questions, using fallback plan",
			zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)))
		metrics.PlansGenerated.WithLabelValues("fallback").Inc()
	} else {
		metrics.PlansGenerated.WithLabelValues("llm").Inc()
	}
	if !res.Fallback && len(res.Items) < QuestionCount {
		p.logger.Info("plan shorter than requested",
			zap.Int("items", len(res.Items)),
			zap.Int("discarded", res.Discarded))
	}

	return res.Items, nil
}

// BuildPrompt renders the plan prompt for profile.
func BuildPrompt(profile models.UserProfile) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile: {{USER_TYPE}}, {{EXPERIENCE_YEARS}} years, {{PRIMARY_SKILL}}, {{TARGET_ROLE}}.\n" +
			"Return a JSON array of {{QUESTION_COUNT}} objects {question, correct_answer, study_topic}."
	}

	targetRole := strings.TrimSpace(profile.TargetRole)
	if targetRole == "" {
		targetRole = strings.TrimSpace(profile.PrimarySkill) + " Developer"
	}

	replacer := strings.NewReplacer(
		"{{QUESTION_COUNT}}", strconv.Itoa(QuestionCount),
		"{{BAND_SIZE}}", strconv.Itoa(BandSize),
		"{{MAX_YES_PERCENT}}", strconv.Itoa(MaxYesPercent),
		"{{USER_TYPE}}", profile.UserType,
		"{{EXPERIENCE_YEARS}}", strconv.Itoa(profile.ExperienceYears),
		"{{PRIMARY_SKILL}}", strings.TrimSpace(profile.PrimarySkill),
		"{{TARGET_ROLE}}", targetRole,
	)
	return replacer.Replace(template)
}
