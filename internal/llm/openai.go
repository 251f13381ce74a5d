package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider calls the Chat Completions API. It also serves OpenRouter,
// which exposes the same API under a different base URL.
type OpenAIProvider struct {
	client openai.Client
	name   string
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	Name    string // ProviderOpenAI or ProviderOpenRouter
	APIKey  string
	BaseURL string // Optional override
}

// NewOpenAIProvider creates a provider. SDK retries are disabled; a failed call
// fails the request.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	name := cfg.Name
	if name == "" {
		name = ProviderOpenAI
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	baseURL := cfg.BaseURL
	if baseURL == "" && name == ProviderOpenRouter {
		baseURL = OpenRouterBaseURL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if name == ProviderOpenRouter {
		opts = append(opts, option.WithHeader("X-Title", "campaign-brief"))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		name:   name,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) params(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		N:           openai.Int(1),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// Complete performs a single non-streamed completion.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return nil, p.classify(err, req.Model)
	}
	if len(resp.Choices) == 0 {
		return nil, ClassifyError(ErrEmptyCompletion, p.name, req.Model, 0)
	}

	return &Result{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// Stream performs a streamed completion, forwarding each content delta.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request, onDelta func(string) error) (*Result, error) {
	params := p.params(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	result := &Result{Model: req.Model}
	var content strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.TotalTokens > 0 {
			result.InputTokens = int(chunk.Usage.PromptTokens)
			result.OutputTokens = int(chunk.Usage.CompletionTokens)
		}
		if chunk.Model != "" {
			result.Model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			result.FinishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}
		content.WriteString(choice.Delta.Content)
		if err := onDelta(choice.Delta.Content); err != nil {
			return nil, err
		}
	}
	if err := stream.Err(); err != nil {
		return nil, p.classify(err, req.Model)
	}

	result.Content = content.String()
	return result, nil
}

func (p *OpenAIProvider) classify(err error, model string) error {
	status := 0
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return ClassifyError(err, p.name, model, status)
}
