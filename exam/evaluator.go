package exam

import (
	"sort"
	"strings"

	"mentormuni-server/models"
)

// Roadmap priority tiers, in rank order.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityOptional = "Optional"
)

// Readiness thresholds (inclusive lower bounds).
const (
	almostReadyThreshold    = 50
	interviewReadyThreshold = 80
)

// Evaluator scores submissions against their echoed correct answers.
// It is safe for concurrent use; the rule set is never mutated.
type Evaluator struct {
	rules RuleSet
}

// NewEvaluator returns an Evaluator using rules, or DefaultRules when rules is empty.
func NewEvaluator(rules RuleSet) *Evaluator {
	if len(rules.Rules) == 0 {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules}
}

// Evaluate computes the readiness score, strengths, gaps and roadmap. The
// submission is assumed valid: four slices of equal length.
func (e *Evaluator) Evaluate(sub models.EvaluationSubmission) models.EvaluationResult {
	total := len(sub.Questions)
	if total == 0 {
		return models.EvaluationResult{
			ReadinessPercentage:     0,
			ReadinessLabel:          models.LabelNotReady,
			Strengths:               []string{},
			Gaps:                    []string{},
			LearningRecommendations: []models.Recommendation{},
		}
	}

	strengths := make([]string, 0, total)
	gaps := make([]string, 0, total)
	recs := make([]models.Recommendation, 0, total)

	for i, question := range sub.Questions {
		if sub.Answers[i] == sub.CorrectAnswers[i] {
			strengths = append(strengths, question)
			continue
		}
		gaps = append(gaps, question)
		rule := e.rules.Classify(sub.StudyTopics[i])
		recs = append(recs, models.Recommendation{
			Priority: rule.Tier,
			Topic:    question,
			Why:      rule.Why,
		})
	}

	sort.SliceStable(recs, func(a, b int) bool {
		return e.rules.Rank(recs[a].Priority) < e.rules.Rank(recs[b].Priority)
	})

	percentage := len(strengths) * 100 / total

	return models.EvaluationResult{
		ReadinessPercentage:     percentage,
		ReadinessLabel:          Label(percentage),
		Strengths:               strengths,
		Gaps:                    gaps,
		LearningRecommendations: recs,
	}
}

// Label maps a readiness percentage to its label.
func Label(percentage int) string {
	switch {
	case percentage >= interviewReadyThreshold:
		return models.LabelInterviewReady
	case percentage >= almostReadyThreshold:
		return models.LabelAlmostReady
	default:
		return models.LabelNotReady
	}
}

// PriorityRule assigns Tier to topics containing any of Keywords.
type PriorityRule struct {
	Tier     string   `yaml:"tier"`
	Keywords []string `yaml:"keywords"`
	Why      string   `yaml:"why"`
}

func (r PriorityRule) matches(topic string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(topic, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered rule list evaluated top-down, first match wins, with
// Default applied when nothing matches. Rank order follows rule order with
// Default last.
type RuleSet struct {
	Rules   []PriorityRule `yaml:"rules"`
	Default PriorityRule   `yaml:"default"`
}

// DefaultRules is the built-in classification table.
func DefaultRules() RuleSet {
	return RuleSet{
		Rules: []PriorityRule{
			{
				Tier:     PriorityCritical,
				Keywords: []string{"core", "fundamental", "essential", "basic", "must"},
				Why:      "Core topic essential for your target role.",
			},
			{
				Tier:     PriorityHigh,
				Keywords: []string{"design", "system", "architecture", "algorithm", "data"},
				Why:      "Important for technical interviews.",
			},
			{
				Tier:     PriorityMedium,
				Keywords: []string{"advanced", "optimization", "scaling", "testing"},
				Why:      "Would strengthen your profile.",
			},
		},
		Default: PriorityRule{
			Tier: PriorityOptional,
			Why:  "Good to know for comprehensive preparation.",
		},
	}
}

// Classify returns the first rule whose keywords occur in topic
// (case-insensitive), or the default rule.
func (rs RuleSet) Classify(topic string) PriorityRule {
	lower := strings.ToLower(topic)
	for _, r := range rs.Rules {
		if r.matches(lower) {
			return r
		}
	}
	return rs.Default
}

// Rank returns the sort rank of tier. Unknown tiers sort after the default.
func (rs RuleSet) Rank(tier string) int {
	for i, r := range rs.Rules {
		if r.Tier == tier {
			return i
		}
	}
	if tier == rs.Default.Tier {
		return len(rs.Rules)
	}
	return len(rs.Rules) + 1
}
