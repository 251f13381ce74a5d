package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

var configEnvVars = []string{
	"PORT", "EXTRACTION_PORT", "LOG_LEVEL", "CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE",
	"REQUEST_TIMEOUT", "TEST_STREAM_INTERVAL", "MONITOR", "LLM_PROVIDER", "OPENAI_API_KEY",
	"OPENAI_BASE_URL", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "LLM_CHEAP_MODEL",
	"LLM_CAPABLE_MODEL", "LLM_TIMEOUT", "EXTRACTION_SERVICE_URL", "EXTRACTION_SECRET",
	"EXTRACTION_TIMEOUT", "CHROME_PATH", "BROWSER_MAX_SESSIONS", "PROBE_TIMEOUT",
	"RENDER_TIMEOUT", "CONSENT_TIMEOUT", "PROXY_BROWSER_URL", "PROXY_URL", "IDLE_TIMEOUT",
	"RESOURCE_DIR", "RESOURCE_S3_BUCKET", "RESOURCE_S3_PREFIX", "RESOURCE_S3_REGION",
}

// clearEnv unsets every config variable and restores the originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	orig := make(map[string]string)
	for _, v := range configEnvVars {
		orig[v] = os.Getenv(v)
		os.Unsetenv(v)
	}
	t.Cleanup(func() {
		for k, v := range orig {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg := Load()

		if cfg.Port != 8080 {
			t.Errorf("Port = %d, want 8080", cfg.Port)
		}
		if cfg.ExtractionPort != 8191 {
			t.Errorf("ExtractionPort = %d, want 8191", cfg.ExtractionPort)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
		}
		if cfg.LLMProvider != "openai" {
			t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, "openai")
		}
		if cfg.ProbeTimeout != 5*time.Second {
			t.Errorf("ProbeTimeout = %v, want 5s", cfg.ProbeTimeout)
		}
		if cfg.ConsentTimeout != 3*time.Second {
			t.Errorf("ConsentTimeout = %v, want 3s", cfg.ConsentTimeout)
		}
		if cfg.RenderTimeout != 60*time.Second {
			t.Errorf("RenderTimeout = %v, want 60s", cfg.RenderTimeout)
		}
		if cfg.BrowserMaxSessions != 4 {
			t.Errorf("BrowserMaxSessions = %d, want 4", cfg.BrowserMaxSessions)
		}
		if cfg.Monitor {
			t.Error("Monitor should default to false")
		}
		if cfg.ResourceDir != "resources" {
			t.Errorf("ResourceDir = %q, want %q", cfg.ResourceDir, "resources")
		}
		if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
			t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
		}
		if cfg.S3Enabled() {
			t.Error("S3Enabled() should be false without a bucket")
		}
	})

	t.Run("from env", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("PORT", "9000")
		os.Setenv("LLM_PROVIDER", "Anthropic")
		os.Setenv("MONITOR", "true")
		os.Setenv("PROBE_TIMEOUT", "2s")
		os.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
		os.Setenv("EXTRACTION_SERVICE_URL", "http://scraper:8191/")
		os.Setenv("RESOURCE_S3_BUCKET", "briefs")
		os.Setenv("RESOURCE_S3_PREFIX", "/prod/")

		cfg := Load()

		if cfg.Port != 9000 {
			t.Errorf("Port = %d, want 9000", cfg.Port)
		}
		if cfg.LLMProvider != "anthropic" {
			t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, "anthropic")
		}
		if !cfg.Monitor {
			t.Error("Monitor = false, want true")
		}
		if cfg.ProbeTimeout != 2*time.Second {
			t.Errorf("ProbeTimeout = %v, want 2s", cfg.ProbeTimeout)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
			t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.CORSOrigins)
		}
		if cfg.ExtractionURL != "http://scraper:8191" {
			t.Errorf("ExtractionURL = %q, want trailing slash trimmed", cfg.ExtractionURL)
		}
		if cfg.ResourceS3Prefix != "prod" {
			t.Errorf("ResourceS3Prefix = %q, want %q", cfg.ResourceS3Prefix, "prod")
		}
		if !cfg.S3Enabled() {
			t.Error("S3Enabled() should be true with a bucket")
		}
	})

	t.Run("invalid values use defaults", func(t *testing.T) {
		clearEnv(t)
		os.Setenv("PORT", "not-a-number")
		os.Setenv("MONITOR", "maybe")
		os.Setenv("RENDER_TIMEOUT", "forever")

		cfg := Load()

		if cfg.Port != 8080 {
			t.Errorf("Port = %d, want 8080 (default)", cfg.Port)
		}
		if cfg.Monitor {
			t.Error("Monitor should fall back to false")
		}
		if cfg.RenderTimeout != 60*time.Second {
			t.Errorf("RenderTimeout = %v, want 60s (default)", cfg.RenderTimeout)
		}
	})
}

func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantKey string
	}{
		{"openai ok", Config{LLMProvider: "openai", OpenAIAPIKey: "sk"}, ""},
		{"missing openai key", Config{LLMProvider: "openai"}, "OPENAI_API_KEY"},
		{"missing openrouter key", Config{LLMProvider: "openrouter", OpenAIAPIKey: "sk"}, "OPENROUTER_API_KEY"},
		{"anthropic ok", Config{LLMProvider: "anthropic", AnthropicAPIKey: "ak"}, ""},
		{"unknown provider", Config{LLMProvider: "ollama", OpenAIAPIKey: "sk"}, "LLM_PROVIDER"},
		{"remote extraction without secret", Config{LLMProvider: "openai", OpenAIAPIKey: "sk", ExtractionURL: "http://x"}, "EXTRACTION_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateAPI()
			if tt.wantKey == "" {
				if err != nil {
					t.Errorf("ValidateAPI() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *apperr.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ValidateAPI() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Key != tt.wantKey {
				t.Errorf("ConfigurationError.Key = %q, want %q", cfgErr.Key, tt.wantKey)
			}
		})
	}
}

func TestValidateExtraction(t *testing.T) {
	if err := (&Config{ExtractionSecret: "s", BrowserMaxSessions: 1}).ValidateExtraction(); err != nil {
		t.Errorf("ValidateExtraction() error = %v, want nil", err)
	}
	if err := (&Config{BrowserMaxSessions: 1}).ValidateExtraction(); err == nil {
		t.Error("ValidateExtraction() should require EXTRACTION_SECRET")
	}
	if err := (&Config{ExtractionSecret: "s"}).ValidateExtraction(); err == nil {
		t.Error("ValidateExtraction() should reject BROWSER_MAX_SESSIONS < 1")
	}
}

func TestProviderBaseURL(t *testing.T) {
	cfg := Config{OpenAIBaseURL: "http://openai.local", AnthropicBaseURL: "http://anthropic.local"}
	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "http://openai.local"},
		{"openrouter", "http://openai.local"},
		{"anthropic", "http://anthropic.local"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg.LLMProvider = tt.provider
			if got := cfg.ProviderBaseURL(); got != tt.want {
				t.Errorf("ProviderBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
