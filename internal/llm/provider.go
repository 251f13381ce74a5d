package llm

import (
	"context"
	"fmt"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

// Request is one provider call.
type Request struct {
	Model       string
	System      string
	User        string
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Result is the outcome of a provider call. For streams Content is the accumulated text.
type Result struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// Provider is an LLM completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
	// Stream calls onDelta with every non-empty text increment, in order.
	// An error from onDelta aborts the stream and is returned as-is.
	Stream(ctx context.Context, req Request, onDelta func(string) error) (*Result, error)
}

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Name    string
	APIKey  string
	BaseURL string
}

// NewProvider creates the provider named by cfg.Name.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case ProviderOpenAI, ProviderOpenRouter:
		return NewOpenAIProvider(OpenAIConfig{Name: cfg.Name, APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL}), nil
	default:
		return nil, &apperr.ConfigurationError{Key: "LLM_PROVIDER", Err: fmt.Errorf("unknown provider %q", cfg.Name)}
	}
}
