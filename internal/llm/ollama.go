package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"
)

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
)

// Ollama generates text with a local Ollama server.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates a generator for the Ollama server at host. Only the
// scheme and host of the URL are used.
func NewOllama(host, model string) (*Ollama, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid ollama host: %q", host)
	}
	baseURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &Ollama{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (o *Ollama) Generate(ctx context.Context, prompt string) (*Completion, error) {
	log.Debug().Str("model", o.model).Str("prompt", prompt).Msg("llm prompt")

	streamFalse := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &streamFalse,
	}

	var text string
	var usage Usage
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		text += resp.Message.Content
		if resp.Done {
			usage.InputTokens = int64(resp.PromptEvalCount)
			usage.OutputTokens = int64(resp.EvalCount)
			usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	log.Info().
		Str("model", o.model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Msg("product analysis llm call")
	log.Debug().Str("model", o.model).Str("response", text).Msg("llm response")

	return &Completion{Text: text, Usage: usage}, nil
}
