package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mentormuni-server/guard"
)

type recordingGenerator struct {
	reqs  []Request
	texts []string
	err   error
}

func (r *recordingGenerator) Generate(_ context.Context, req Request) (*Response, error) {
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return nil, r.err
	}
	text := r.texts[0]
	if len(r.texts) > 1 {
		r.texts = r.texts[1:]
	}
	return &Response{Text: text}, nil
}

func (r *recordingGenerator) Model() string { return "recording" }

func instantLayer(retries int) *guard.Layer {
	return &guard.Layer{
		Timeout: time.Second,
		Policy: guard.Policy{
			MaxRetries: retries,
			Sleep:      func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		},
	}
}

func TestAssistantSendsSystemPromptAndTrims(t *testing.T) {
	gen := &recordingGenerator{texts: []string{"  Use a map.  \n"}}
	a := NewAssistant(gen, instantLayer(3), zap.NewNop())

	out, err := a.Generate(context.Background(), "How do I dedupe?", "Go programming")
	require.NoError(t, err)
	assert.Equal(t, "Use a map.", out)

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, "You are an assistant specialized in Go programming.", gen.reqs[0].System)
	assert.Equal(t, "How do I dedupe?", gen.reqs[0].Prompt)
	assert.Equal(t, int32(150), gen.reqs[0].MaxTokens)
}

func TestAssistantExhaustion(t *testing.T) {
	gen := &recordingGenerator{err: errors.New("rate limited")}
	a := NewAssistant(gen, instantLayer(2), zap.NewNop())

	_, err := a.Generate(context.Background(), "hi", "chat")
	assert.ErrorIs(t, err, guard.ErrServiceUnavailable)
	assert.Len(t, gen.reqs, 2)
}
