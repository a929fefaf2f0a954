package narrative

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/pkg/anthropic"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultMaxTokens      = 4096
)

// AnthropicGenerator writes scripts with the Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns a generator backed by client. Empty model and
// non-positive maxTokens select defaults.
func NewAnthropic(client anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	if model == "" {
		model = defaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, events []model.Event) (string, error) {
	if len(events) == 0 {
		return "", errNoEvents
	}
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    systemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: userPrompt(events)}},
	})
	if err != nil {
		return "", eris.Wrap(err, "narrative: anthropic")
	}
	resp.Usage.Log(g.model, "narrative")
	return resp.Text(), nil
}
