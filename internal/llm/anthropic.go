package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

// jsonOnlyInstruction is appended to the system prompt for structured intents,
// since the Messages API has no JSON response format switch.
const jsonOnlyInstruction = "\nRespond with a single valid JSON object and nothing else."

// anthropicDefaultMaxTokens is used when an intent leaves MaxTokens unset;
// the Messages API requires the field.
const anthropicDefaultMaxTokens = 2048

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // Optional override
}

// NewAnthropicProvider creates a provider. SDK retries are disabled.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	opts := []aoption.RequestOption{
		aoption.WithAPIKey(cfg.APIKey),
		aoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, aoption.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...)}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	system := req.System
	if req.JSON {
		system += jsonOnlyInstruction
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(maxTokens),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.User))},
		Temperature: anthropic.Float(req.Temperature),
	}
}

// Complete performs a single non-streamed completion.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, p.classify(err, req.Model)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &Result{
		Content:      content.String(),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		FinishReason: string(msg.StopReason),
	}, nil
}

// Stream performs a streamed completion, forwarding each text delta.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request, onDelta func(string) error) (*Result, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.params(req))
	defer stream.Close()

	result := &Result{Model: req.Model}
	var content strings.Builder
	for stream.Next() {
		switch ev := stream.Current().AsAny().(type) {
		case anthropic.MessageStartEvent:
			result.InputTokens = int(ev.Message.Usage.InputTokens)
			if ev.Message.Model != "" {
				result.Model = string(ev.Message.Model)
			}
		case anthropic.ContentBlockDeltaEvent:
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			content.WriteString(delta.Text)
			if err := onDelta(delta.Text); err != nil {
				return nil, err
			}
		case anthropic.MessageDeltaEvent:
			result.OutputTokens = int(ev.Usage.OutputTokens)
			result.FinishReason = string(ev.Delta.StopReason)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, p.classify(err, req.Model)
	}

	result.Content = content.String()
	return result, nil
}

func (p *AnthropicProvider) classify(err error, model string) error {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return ClassifyError(err, ProviderAnthropic, model, status)
}
