// Package llm wraps the generative text providers used to interpret
// product labels.
package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when a hosted provider has no API key.
var ErrMissingAPIKey = errors.New("llm api key is not set")

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Completion is the free-form text returned for a single prompt.
type Completion struct {
	Text  string
	Usage Usage
}

// Generator sends a single-turn text prompt and returns the response text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Completion, error)
}
