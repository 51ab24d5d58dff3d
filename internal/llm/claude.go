package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog/log"
)

const DefaultClaudeModel = "claude-3-5-haiku-latest"

// claudeMaxTokens is well above a five-and-five pros/cons list plus a
// paragraph of environmental impact.
const claudeMaxTokens = 1024

// Claude pricing (per million tokens)
const (
	claudeInputPricePerMillion  = 0.80
	claudeOutputPricePerMillion = 4.00
)

// Claude generates text with the Anthropic Messages API.
type Claude struct {
	client *anthropic.Client
	model  string
}

// NewClaude creates a Claude generator. baseURL overrides the API endpoint
// and is only needed for testing.
func NewClaude(apiKey, model, baseURL string) (*Claude, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Claude{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}, nil
}

func (c *Claude) Generate(ctx context.Context, prompt string) (*Completion, error) {
	log.Debug().Str("model", c.model).Str("prompt", prompt).Msg("llm prompt")

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude messages failed: %w", err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return nil, fmt.Errorf("empty response from claude")
	}

	usage := Usage{
		InputTokens:  int64(resp.Usage.InputTokens),
		OutputTokens: int64(resp.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, claudeInputPricePerMillion, claudeOutputPricePerMillion)

	log.Info().
		Str("model", c.model).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("product analysis llm call")
	log.Debug().Str("model", c.model).Str("response", text).Msg("llm response")

	return &Completion{Text: text, Usage: usage}, nil
}
