package classification

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/voicetriage/voicetriage/internal/provider"
	"github.com/voicetriage/voicetriage/internal/triage"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

const systemPrompt = "You are a support ticket triage tool. Output **only JSON** with keys " +
	"`customer`, `email`, `category`, `urgency`, `summary`, `rationale`. " +
	"`category` in {billing, bug, feature, other}. `urgency` in {low, medium, high}. " +
	"`summary` is one sentence describing the issue, `rationale` one sentence explaining the triage. " +
	"Omit any key you cannot extract from the message."

// AnthropicClassifier is the live backend, calling the Anthropic messages
// endpoint through the official SDK.
type AnthropicClassifier struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *logger.Logger
}

var _ Classifier = (*AnthropicClassifier)(nil)

// NewAnthropicClassifier creates a classifier backed by the Anthropic API.
func NewAnthropicClassifier(apiKey, model string, maxTokens int, logger *logger.Logger) *AnthropicClassifier {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &AnthropicClassifier{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		logger:    logger.Named("anthropic-classifier"),
	}
}

// Name implements Classifier.
func (c *AnthropicClassifier) Name() string {
	return "anthropic"
}

// Classify sends the transcript for triage. Transport and auth failures
// surface as *provider.Error; a reply without a usable JSON object
// surfaces as *provider.ParseError.
func (c *AnthropicClassifier) Classify(ctx context.Context, text string) (*triage.Draft, error) {
	c.logger.Debug("Classifying message",
		logger.String("model", string(c.model)),
		logger.Int("chars", len(text)),
	)

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Classify this support message: " + text)),
		},
	})
	if err != nil {
		return nil, &provider.Error{Provider: c.Name(), Op: "classify", Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	raw := sb.String()

	draft, err := parseDraft(raw)
	if err != nil {
		return nil, &provider.ParseError{Provider: c.Name(), Raw: truncate(raw, 200), Err: err}
	}

	c.logger.Debug("Classification complete",
		logger.String("category", draft.Category),
		logger.String("urgency", draft.Urgency),
	)
	return draft, nil
}
