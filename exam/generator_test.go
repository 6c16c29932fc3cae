package exam

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mentormuni-server/guard"
	"mentormuni-server/llm"
	"mentormuni-server/models"
)

type stubGenerator struct {
	mu        sync.Mutex
	responses []stubResponse
	prompts   []string
	block     chan struct{}
}

type stubResponse struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	if len(s.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	r := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Text: r.text, TotalTokens: 100}, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

func noSleepLayer(timeout time.Duration, retries int) *guard.Layer {
	return &guard.Layer{
		Timeout: timeout,
		Policy: guard.Policy{
			MaxRetries: retries,
			Sleep:      func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		},
	}
}

func testProfile() models.UserProfile {
	return models.UserProfile{
		UserType:        models.UserTypeWorkingProfessional,
		ExperienceYears: 4,
		PrimarySkill:    "Go",
		TargetRole:      "Backend Engineer",
	}
}

func TestBuildPromptEmbedsProfile(t *testing.T) {
	prompt := BuildPrompt(testProfile())

	assert.Contains(t, prompt, "- User Type: working_professional")
	assert.Contains(t, prompt, "- Experience: 4 years")
	assert.Contains(t, prompt, "- Primary Skill: Go")
	assert.Contains(t, prompt, "- Target Role: Backend Engineer")
	assert.Contains(t, prompt, "EXACTLY 15")
	assert.Contains(t, prompt, "Capability Gate (5 questions)")
	assert.Contains(t, prompt, "Concept Validation (5 questions)")
	assert.Contains(t, prompt, "Interview Traps & Edge Cases (5 questions)")
	assert.Contains(t, prompt, "NO more than 60%")
	assert.Contains(t, prompt, `"study_topic"`)
	assert.NotContains(t, prompt, "{{")
}

func TestBuildPromptDefaultsTargetRole(t *testing.T) {
	p := testProfile()
	p.TargetRole = ""
	assert.Contains(t, BuildPrompt(p), "- Target Role: Go Developer")
}

func TestGeneratePlanRetriesThenParses(t *testing.T) {
	body, err := json.Marshal(wellFormedItems(QuestionCount))
	require.NoError(t, err)

	stub := &stubGenerator{responses: []stubResponse{
		{err: errors.New("503 from provider")},
		{text: "```json\n" + string(body) + "\n```"},
	}}
	planner := NewPlanner(stub, noSleepLayer(time.Second, 3), zap.NewNop())

	items, err := planner.GeneratePlan(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Len(t, items, QuestionCount)
	assert.Len(t, stub.prompts, 2)
	assert.True(t, strings.Contains(stub.prompts[0], "Primary Skill: Go"))
}

func TestGeneratePlanFallsBackOnNoise(t *testing.T) {
	stub := &stubGenerator{responses: []stubResponse{{text: "I cannot produce JSON today."}}}
	planner := NewPlanner(stub, noSleepLayer(time.Second, 3), zap.NewNop())

	items, err := planner.GeneratePlan(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, []models.QuestionItem{FallbackItem}, items)
	assert.Len(t, stub.prompts, 1)
}

func TestGeneratePlanPropagatesExhaustion(t *testing.T) {
	stub := &stubGenerator{responses: []stubResponse{{err: errors.New("quota exceeded")}}}
	planner := NewPlanner(stub, noSleepLayer(time.Second, 3), zap.NewNop())

	_, err := planner.GeneratePlan(context.Background(), testProfile())
	assert.ErrorIs(t, err, guard.ErrServiceUnavailable)
	assert.Len(t, stub.prompts, 3)
}

func TestGeneratePlanPropagatesTimeout(t *testing.T) {
	stub := &stubGenerator{block: make(chan struct{}), responses: []stubResponse{{text: "[]"}}}
	planner := NewPlanner(stub, noSleepLayer(30*time.Millisecond, 3), zap.NewNop())

	_, err := planner.GeneratePlan(context.Background(), testProfile())
	assert.ErrorIs(t, err, guard.ErrTimeout)
}
