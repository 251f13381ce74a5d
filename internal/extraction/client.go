package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
	"github.com/jmylchreest/campaign-brief/internal/signing"
	"github.com/jmylchreest/campaign-brief/internal/version"
)

const extractPath = "/extract"

// ClientConfig holds configuration for the extraction client.
type ClientConfig struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client calls a remote extraction server. It implements Extractor.
type Client struct {
	http       *resty.Client
	signer     *signing.Signer
	signedPath string
	logger     *slog.Logger
}

// NewClient creates an extraction client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &apperr.ConfigurationError{Key: "EXTRACTION_SERVICE_URL", Err: fmt.Errorf("invalid URL %q", cfg.BaseURL)}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 3 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", version.UserAgent("api")).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:       client,
		signer:     signing.NewSigner(cfg.Secret),
		signedPath: base.JoinPath(extractPath).Path,
		logger:     cfg.Logger,
	}, nil
}

// Extract sends req to the extraction server. A 403 becomes a BlockedError, 400 and
// 422 a ValidationError and everything else a TransportError.
func (c *Client) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	start := time.Now()
	logger := logging.FromContext(ctx, c.logger)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	sig := c.signer.Sign(http.MethodPost, c.signedPath, body)

	var out models.ExtractResponse
	var errResp models.ErrorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(signing.HeaderSignature, sig.Signature).
		SetHeader(signing.HeaderTimestamp, sig.Timestamp).
		SetHeader("X-Request-Id", logging.GetRequestID(ctx)).
		SetBody(body).
		SetResult(&out).
		SetError(&errResp).
		Post(extractPath)
	if err != nil {
		logger.Error("extraction request failed",
			"url", req.URL,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &apperr.TransportError{Target: "extraction", Err: err}
	}

	status := resp.StatusCode()
	logger.Info("extraction response",
		"url", req.URL,
		"status_code", status,
		"proxy_enabled", out.ProxyEnabled,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case status == http.StatusOK:
		return &out, nil
	case status == http.StatusForbidden:
		return nil, &apperr.BlockedError{URL: req.URL, Signal: errResp.Message}
	case status == http.StatusGatewayTimeout:
		return nil, &apperr.TransportError{Target: "extraction", StatusCode: status, Err: context.DeadlineExceeded}
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return nil, apperr.NewValidation("url", remoteMessage(errResp, status))
	case status >= 400 && status < 500:
		// 401 (bad signature) and 429 (throttled) are not caller mistakes
		return nil, &apperr.TransportError{
			Target:     "extraction",
			StatusCode: status,
			Err:        errors.New(remoteMessage(errResp, status)),
		}
	default:
		return nil, &apperr.TransportError{
			Target:     "extraction",
			StatusCode: status,
			Err:        fmt.Errorf("unexpected response: %s", truncate(resp.String(), 200)),
		}
	}
}

// Health checks the extraction server health endpoint.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&health).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d", resp.StatusCode())
	}
	return &health, nil
}

func remoteMessage(errResp models.ErrorResponse, status int) string {
	if errResp.Message != "" {
		return errResp.Message
	}
	return http.StatusText(status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
