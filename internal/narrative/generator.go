// Package narrative turns a batch of new and updated events into a
// Korean-language announcement script.
package narrative

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/pkg/anthropic"
)

// EmptyScript is returned when there is nothing to announce.
const EmptyScript = "No new marathon events announced today."

// Providers accepted by Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderTemplate  = "template"
)

// Generator produces a script for events.
type Generator interface {
	Generate(ctx context.Context, events []model.Event) (string, error)
}

// Config selects and configures the script provider.
type Config struct {
	Provider      string
	Model         string
	MaxTokens     int64
	AnthropicKey  string
	OpenAIKey     string
	OpenAIBaseURL string
}

// New returns the configured generator. LLM providers are wrapped so any
// failure or blank output falls back to the template. A provider without
// an API key degrades to the template alone.
func New(cfg Config) Generator {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			zap.L().Warn("narrative: anthropic key missing, using template")
			return Template{}
		}
		return WithFallback(NewAnthropic(anthropic.NewClient(cfg.AnthropicKey), cfg.Model, cfg.MaxTokens))
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			zap.L().Warn("narrative: openai key missing, using template")
			return Template{}
		}
		return WithFallback(NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model))
	default:
		return Template{}
	}
}

type fallback struct {
	primary Generator
}

// WithFallback wraps g so errors and blank scripts yield the template.
func WithFallback(g Generator) Generator {
	return &fallback{primary: g}
}

func (f *fallback) Generate(ctx context.Context, events []model.Event) (string, error) {
	if len(events) == 0 {
		return EmptyScript, nil
	}
	script, err := f.primary.Generate(ctx, events)
	if err != nil {
		zap.L().Warn("narrative: generation failed, falling back to template", zap.Error(err))
		return Template{}.Generate(ctx, events)
	}
	if strings.TrimSpace(script) == "" {
		zap.L().Warn("narrative: empty script, falling back to template")
		return Template{}.Generate(ctx, events)
	}
	return script, nil
}

const systemPrompt = "You are a helpful assistant writing YouTube scripts."

// userPrompt asks for an energetic Korean news script covering events.
func userPrompt(events []model.Event) string {
	var b strings.Builder
	b.WriteString("You are an energetic marathon news reporter.\n")
	b.WriteString("Write a detailed and exciting YouTube script announcing the following marathon event news in Korea.\n\n")
	b.WriteString("For each event, cover:\n")
	b.WriteString("1. The race name and schedule.\n")
	b.WriteString("2. The location and race categories (10k, Full, etc).\n")
	b.WriteString("3. Detailed information from the 'Details' section (unique selling points, prizes, course features).\n")
	b.WriteString("4. Registration information (when to register).\n")
	b.WriteString("5. If the event is marked (UPDATED), say what changed (see 'Changes') and tell viewers to check the new information.\n\n")
	b.WriteString("Use an enthusiastic tone. Structure it clearly.\n\n")
	b.WriteString("Events:\n")
	b.WriteString(EventsText(events))
	b.WriteString("\nKeep the script in Korean.\n")
	return b.String()
}

var errNoEvents = eris.New("narrative: no events")
