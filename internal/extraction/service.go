// Package extraction turns a URL into plain page text, escalating to a proxied
// browser when the target blocks direct access.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/challenge"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
)

// maxAttempts allows the direct attempt plus one proxied retry.
const maxAttempts = 2

// Extractor produces page text for a request. Implemented in-process by Service
// and remotely by Client.
type Extractor interface {
	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error)
}

// ScrapeAttemptState is the state of one render attempt. A new value is created
// for every attempt.
type ScrapeAttemptState struct {
	URL      string
	UseProxy bool
	Blocked  bool
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Prober   Prober
	Renderer Renderer
	Detector *challenge.Detector
	Denylist *Denylist
	// ProxyAvailable is false when no proxied browser is configured. Probe
	// failures are then logged and the direct attempt is still made.
	ProxyAvailable bool
	Logger         *slog.Logger
}

// Service implements Extractor with a probe, a rendered attempt and at most one
// proxied retry.
type Service struct {
	prober         Prober
	renderer       Renderer
	detector       *challenge.Detector
	denylist       *Denylist
	proxyAvailable bool
	logger         *slog.Logger
}

// NewService creates an extraction service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Detector == nil {
		cfg.Detector = challenge.NewDetector(nil)
	}
	if cfg.Denylist == nil {
		cfg.Denylist = NewDenylist(DefaultDenylist)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		prober:         cfg.Prober,
		renderer:       cfg.Renderer,
		detector:       cfg.Detector,
		denylist:       cfg.Denylist,
		proxyAvailable: cfg.ProxyAvailable,
		logger:         cfg.Logger,
	}
}

// Extract returns the text of req.URL. It fails with a ValidationError for a bad
// request, a BlockedError when the page stays blocked through the proxy, or a
// TransportError when the browser cannot render the page.
func (s *Service) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx, s.logger)
	start := time.Now()

	useProxy := req.UseProxy
	if !useProxy {
		useProxy = s.probe(ctx, req.URL, logger)
	}

	var signal string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state := ScrapeAttemptState{URL: req.URL, UseProxy: useProxy}

		text, detection, err := s.attempt(ctx, &state, req.MonitorCost, logger)
		if err != nil {
			return nil, err
		}

		if !state.Blocked {
			logger.Info("scraping complete",
				"url", req.URL,
				"proxy_enabled", state.UseProxy,
				"attempts", attempt,
				"chars", len(text),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return &models.ExtractResponse{
				ExtractedText: text,
				ProxyEnabled:  state.UseProxy,
				Attempts:      attempt,
			}, nil
		}

		signal = detection.Phrase
		if state.UseProxy || !s.proxyAvailable {
			break
		}
		logger.Info("scraping was rejected, retrying with proxy", "url", req.URL, "signal", signal)
		useProxy = true
	}

	logger.Warn("access blocked", "url", req.URL, "signal", signal)
	return nil, &apperr.BlockedError{URL: req.URL, Signal: signal}
}

// probe reports whether the first attempt should use the proxy.
func (s *Service) probe(ctx context.Context, url string, logger *slog.Logger) bool {
	if s.prober == nil {
		return false
	}
	status, err := s.prober.Probe(ctx, url)
	if !needsProxy(status, err) {
		logger.Debug("probe succeeded, proceeding without proxy", "url", url, "status", status)
		return false
	}
	if !s.proxyAvailable {
		logger.Warn("probe failed and no proxy is configured, trying direct render",
			"url", url, "status", status, "error", err)
		return false
	}
	logger.Info("probe failed, using proxy", "url", url, "status", status, "error", err)
	return true
}

func (s *Service) attempt(ctx context.Context, state *ScrapeAttemptState, monitorCost bool, logger *slog.Logger) (string, challenge.Detection, error) {
	page, err := s.renderer.Render(ctx, state.URL, state.UseProxy)
	if err != nil {
		return "", challenge.Detection{}, err
	}
	if monitorCost && state.UseProxy {
		monitorCostOf(logger, state.URL, page)
	}

	text, err := ExtractText(page.HTML, page.Title, s.denylist)
	if err != nil {
		return "", challenge.Detection{}, fmt.Errorf("parse %s: %w", state.URL, err)
	}

	detection := s.detector.Detect(page.Title, text)
	state.Blocked = detection.Blocked()
	logger.Debug("page content", "url", state.URL, "content", text)
	return text, detection, nil
}

func monitorCostOf(logger *slog.Logger, url string, page *RenderedPage) {
	logger.Info("proxied render cost",
		"url", url,
		"html_bytes", len(page.HTML),
		"duration_ms", page.Elapsed.Milliseconds(),
	)
}
