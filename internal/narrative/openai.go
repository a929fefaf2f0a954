package narrative

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/marathon-cli/internal/model"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIGenerator writes scripts with the chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a generator for apiKey. baseURL overrides the API
// endpoint when set.
func NewOpenAI(apiKey, baseURL, model string) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, events []model.Event) (string, error) {
	if len(events) == 0 {
		return "", errNoEvents
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(events)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "narrative: openai")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("narrative: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
