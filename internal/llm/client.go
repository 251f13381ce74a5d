package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/logging"
)

// languageSuffix is appended to every system instruction, followed by the language display name.
const languageSuffix = "\nYou will generate this content in "

// ClientConfig configures a Client.
type ClientConfig struct {
	Provider Provider
	// Instructions maps intent names (Intent.String) to their templates.
	Instructions map[string]string
	CheapModel   string
	CapableModel string
	// Timeout bounds each non-streamed call. Streams are bounded by the request context only.
	Timeout time.Duration
	// Monitor logs token usage and elapsed time for every call.
	Monitor bool
	Logger  *slog.Logger
}

// Client issues intent-driven completions. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	provider Provider
	specs    map[Intent]IntentSpec
	models   map[ModelTier]string
	timeout  time.Duration
	monitor  bool
	logger   *slog.Logger
}

// Completion is the outcome of Complete. Exactly one of Text or Object is meaningful,
// depending on the intent's response mode.
type Completion struct {
	Intent Intent
	Text   string
	Object map[string]any
	Result *Result
}

// NewClient builds the intent table from the instruction templates.
// A missing template is a ConfigurationError.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Provider == nil {
		return nil, &apperr.ConfigurationError{Key: "LLM_PROVIDER"}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	specs := DefaultSpecs()
	for intent, spec := range specs {
		instruction, ok := cfg.Instructions[intent.String()]
		if !ok || strings.TrimSpace(instruction) == "" {
			return nil, &apperr.ConfigurationError{Key: "instructions/" + intent.String() + ".txt"}
		}
		spec.Instruction = instruction
		specs[intent] = spec
	}

	models := map[ModelTier]string{
		TierCheap:   cfg.CheapModel,
		TierCapable: cfg.CapableModel,
	}
	for tier, model := range models {
		if model == "" {
			models[tier] = DefaultModel(cfg.Provider.Name(), tier)
		}
	}

	return &Client{
		provider: cfg.Provider,
		specs:    specs,
		models:   models,
		timeout:  cfg.Timeout,
		monitor:  cfg.Monitor,
		logger:   cfg.Logger,
	}, nil
}

// ProviderName returns the name of the configured provider.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

func (c *Client) request(intent Intent, input, language string) (Request, IntentSpec, error) {
	spec, ok := c.specs[intent]
	if !ok {
		return Request{}, spec, fmt.Errorf("unknown intent %s", intent)
	}
	return Request{
		Model:       c.models[spec.Tier],
		System:      spec.Instruction + languageSuffix + language,
		User:        input,
		JSON:        spec.Mode == ModeJSON,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
	}, spec, nil
}

// Complete runs a buffered completion for intent. Structured intents return the
// decoded object or a MalformedCompletionError.
func (c *Client) Complete(ctx context.Context, intent Intent, input, language string) (*Completion, error) {
	req, spec, err := c.request(intent, input, language)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", intent, err)
	}
	c.observe(ctx, intent, res, time.Since(start))

	completion := &Completion{Intent: intent, Result: res}
	if spec.Mode == ModeFreeText {
		if strings.TrimSpace(res.Content) == "" {
			return nil, &apperr.MalformedCompletionError{Intent: intent.String(), Err: ErrEmptyCompletion}
		}
		completion.Text = res.Content
		return completion, nil
	}

	obj, err := decodeObject(res)
	if err != nil {
		return nil, &apperr.MalformedCompletionError{Intent: intent.String(), Content: res.Content, Err: err}
	}
	completion.Object = obj
	return completion, nil
}

// CompleteStream runs a streamed completion for a free-text intent, calling onChunk
// with each increment, and returns the accumulated text.
func (c *Client) CompleteStream(ctx context.Context, intent Intent, input, language string, onChunk func(string) error) (string, error) {
	req, spec, err := c.request(intent, input, language)
	if err != nil {
		return "", err
	}
	if spec.Mode != ModeFreeText {
		return "", fmt.Errorf("intent %s is structured and cannot be streamed", intent)
	}

	start := time.Now()
	res, err := c.provider.Stream(ctx, req, onChunk)
	if err != nil {
		return "", fmt.Errorf("%s stream: %w", intent, err)
	}
	c.observe(ctx, intent, res, time.Since(start))
	return res.Content, nil
}

func (c *Client) observe(ctx context.Context, intent Intent, res *Result, elapsed time.Duration) {
	logger := logging.FromContext(ctx, c.logger)
	if !c.monitor {
		logger.Debug("completion finished", "intent", intent.String(), "duration_ms", elapsed.Milliseconds())
		return
	}
	logger.Info("completion usage",
		"intent", intent.String(),
		"provider", c.provider.Name(),
		"model", res.Model,
		"prompt_tokens", res.InputTokens,
		"completion_tokens", res.OutputTokens,
		"total_tokens", res.InputTokens+res.OutputTokens,
		"finish_reason", res.FinishReason,
		"duration_ms", elapsed.Milliseconds(),
	)
	logger.Debug("completion content", "intent", intent.String(), "content", res.Content)
}

// decodeObject parses a structured completion. Markdown code fences are tolerated.
func decodeObject(res *Result) (map[string]any, error) {
	text := stripFences(res.Content)
	if text == "" {
		return nil, ErrEmptyCompletion
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		if isTruncated(res.FinishReason) {
			return nil, fmt.Errorf("%w: %v", ErrOutputTruncated, err)
		}
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("completion is not a JSON object")
	}
	return obj, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isTruncated(finishReason string) bool {
	return finishReason == "length" || finishReason == "max_tokens"
}
