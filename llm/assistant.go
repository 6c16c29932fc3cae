package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mentormuni-server/guard"
	"mentormuni-server/metrics"
)

const assistantMaxTokens = 150

// Assistant answers free-form prompts for a named use case.
type Assistant struct {
	generator Generator
	guard     *guard.Layer
	logger    *zap.Logger
}

func NewAssistant(generator Generator, layer *guard.Layer, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if layer == nil {
		layer = guard.NewLayer(guard.DefaultTimeout, guard.DefaultMaxRetries, logger)
	}
	return &Assistant{generator: generator, guard: layer, logger: logger}
}

// SystemPrompt is the instruction sent with every passthrough call.
func SystemPrompt(useCase string) string {
	return fmt.Sprintf("You are an assistant specialized in %s.", strings.TrimSpace(useCase))
}

// Generate returns the trimmed model output. Errors are the guard sentinels.
func (a *Assistant) Generate(ctx context.Context, prompt, useCase string) (string, error) {
	req := Request{
		System:    SystemPrompt(useCase),
		Prompt:    prompt,
		MaxTokens: assistantMaxTokens,
	}

	start := time.Now()
	out, err := guard.Do(ctx, a.guard, func(ctx context.Context) (string, error) {
		resp, err := a.generator.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	})
	metrics.LLMCallDuration.WithLabelValues("generate", guard.Outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	a.logger.Debug("passthrough generation complete",
		zap.String("use_case", useCase),
		zap.Int("output_length", len(out)))
	return strings.TrimSpace(out), nil
}
