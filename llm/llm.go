// Package llm wraps the text-generation provider behind a narrow interface so
// callers can be exercised with fakes.
package llm

import (
	"context"
)

// Request is a single prompt sent to the provider.
type Request struct {
	// System is an optional system instruction.
	System    string
	Prompt    string
	MaxTokens int32
}

// Response is the textual output plus token accounting when the provider
// reports it.
type Response struct {
	Text        string
	TotalTokens int32
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Model() string
}
