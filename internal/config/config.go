// Package config provides configuration management for the campaign API and
// the extraction server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

var errNotPositive = errors.New("must be at least 1")

func errUnknownProvider(name string) error {
	return fmt.Errorf("unknown provider %q (want openai, openrouter or anthropic)", name)
}

// Config holds all configuration for both binaries.
type Config struct {
	// Server settings
	Port               int
	ExtractionPort     int
	LogLevel           string
	CORSOrigins        []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	TestStreamInterval time.Duration

	// Monitor enables token usage and timing logs for every completion.
	Monitor bool

	// LLM provider settings
	LLMProvider      string // openai | openrouter | anthropic
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenRouterAPIKey string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	CheapModel       string // Empty selects the provider default
	CapableModel     string
	LLMTimeout       time.Duration

	// Extraction client settings (campaign API side)
	ExtractionURL     string // Empty runs extraction in-process
	ExtractionSecret  string // HMAC secret shared with the extraction server
	ExtractionTimeout time.Duration

	// Browser settings (extraction side)
	ChromePath         string
	BrowserMaxSessions int
	ProbeTimeout       time.Duration
	RenderTimeout      time.Duration
	ConsentTimeout     time.Duration
	ProxyBrowserURL    string // Remote CDP endpoint of a proxied scraping browser
	ProxyURL           string // Proxy server passed to a locally launched browser
	IdleTimeout        time.Duration

	// Resource settings
	ResourceDir        string
	ResourceS3Bucket   string
	ResourceS3Prefix   string
	ResourceS3Region   string
	ResourceS3Endpoint string
	ResourceS3KeyID    string
	ResourceS3Secret   string
}

// Load creates a Config from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:               getEnvInt("PORT", 8080),
		ExtractionPort:     getEnvInt("EXTRACTION_PORT", 8191),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 5*time.Minute),
		TestStreamInterval: getEnvDuration("TEST_STREAM_INTERVAL", time.Second),
		Monitor:            getEnvBool("MONITOR", false),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		CheapModel:       getEnv("LLM_CHEAP_MODEL", ""),
		CapableModel:     getEnv("LLM_CAPABLE_MODEL", ""),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 2*time.Minute),

		ExtractionURL:     strings.TrimRight(getEnv("EXTRACTION_SERVICE_URL", ""), "/"),
		ExtractionSecret:  getEnv("EXTRACTION_SECRET", ""),
		ExtractionTimeout: getEnvDuration("EXTRACTION_TIMEOUT", 3*time.Minute),

		ChromePath:         getEnv("CHROME_PATH", ""),
		BrowserMaxSessions: getEnvInt("BROWSER_MAX_SESSIONS", 4),
		ProbeTimeout:       getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		RenderTimeout:      getEnvDuration("RENDER_TIMEOUT", 60*time.Second),
		ConsentTimeout:     getEnvDuration("CONSENT_TIMEOUT", 3*time.Second),
		ProxyBrowserURL:    getEnv("PROXY_BROWSER_URL", ""),
		ProxyURL:           getEnv("PROXY_URL", ""),
		IdleTimeout:        getEnvDuration("IDLE_TIMEOUT", 0),

		ResourceDir:        getEnv("RESOURCE_DIR", "resources"),
		ResourceS3Bucket:   getEnv("RESOURCE_S3_BUCKET", ""),
		ResourceS3Prefix:   strings.Trim(getEnv("RESOURCE_S3_PREFIX", ""), "/"),
		ResourceS3Region:   getEnv("RESOURCE_S3_REGION", "auto"),
		ResourceS3Endpoint: getEnv("RESOURCE_S3_ENDPOINT", ""),
		ResourceS3KeyID:    getEnv("RESOURCE_S3_ACCESS_KEY_ID", ""),
		ResourceS3Secret:   getEnv("RESOURCE_S3_SECRET_ACCESS_KEY", ""),
	}
}

// ProviderAPIKey returns the credential for the configured LLM provider.
func (c *Config) ProviderAPIKey() (key, envName string) {
	switch c.LLMProvider {
	case "openrouter":
		return c.OpenRouterAPIKey, "OPENROUTER_API_KEY"
	case "anthropic":
		return c.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	default:
		return c.OpenAIAPIKey, "OPENAI_API_KEY"
	}
}

// ProviderBaseURL returns the endpoint override for the configured LLM provider.
// Empty selects the SDK default.
func (c *Config) ProviderBaseURL() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicBaseURL
	}
	return c.OpenAIBaseURL
}

// ValidateAPI checks the settings the campaign API cannot start without.
func (c *Config) ValidateAPI() error {
	switch c.LLMProvider {
	case "openai", "openrouter", "anthropic":
	default:
		return &apperr.ConfigurationError{Key: "LLM_PROVIDER", Err: errUnknownProvider(c.LLMProvider)}
	}
	if key, env := c.ProviderAPIKey(); key == "" {
		return &apperr.ConfigurationError{Key: env}
	}
	if c.ExtractionURL != "" && c.ExtractionSecret == "" {
		return &apperr.ConfigurationError{Key: "EXTRACTION_SECRET"}
	}
	return nil
}

// ValidateExtraction checks the settings the extraction server cannot start without.
func (c *Config) ValidateExtraction() error {
	if c.ExtractionSecret == "" {
		return &apperr.ConfigurationError{Key: "EXTRACTION_SECRET"}
	}
	if c.BrowserMaxSessions < 1 {
		return &apperr.ConfigurationError{Key: "BROWSER_MAX_SESSIONS", Err: errNotPositive}
	}
	return nil
}

// S3Enabled reports whether resources should be read from object storage.
func (c *Config) S3Enabled() bool {
	return c.ResourceS3Bucket != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
