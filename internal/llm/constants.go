// Package llm provides the completion client, its provider implementations and
// the per-intent configuration table.
package llm

// Provider name constants for use throughout the codebase.
const (
	// ProviderOpenAI is the OpenAI provider name.
	ProviderOpenAI = "openai"

	// ProviderOpenRouter is the OpenRouter provider name (OpenAI-compatible API).
	ProviderOpenRouter = "openrouter"

	// ProviderAnthropic is the Anthropic provider name.
	ProviderAnthropic = "anthropic"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// ValidProviders returns a slice of all valid provider names.
func ValidProviders() []string {
	return []string{ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic}
}

// IsValidProvider returns true if the provider name is valid.
func IsValidProvider(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderAnthropic:
		return true
	default:
		return false
	}
}

// defaultModels holds the model used for each tier when none is configured.
var defaultModels = map[string]map[ModelTier]string{
	ProviderOpenAI: {
		TierCheap:   "gpt-4o-mini",
		TierCapable: "gpt-4o",
	},
	ProviderOpenRouter: {
		TierCheap:   "openai/gpt-4o-mini",
		TierCapable: "openai/gpt-4o",
	},
	ProviderAnthropic: {
		TierCheap:   "claude-3-5-haiku-latest",
		TierCapable: "claude-sonnet-4-5",
	},
}

// DefaultModel returns the default model of a provider for a tier.
func DefaultModel(provider string, tier ModelTier) string {
	return defaultModels[provider][tier]
}
