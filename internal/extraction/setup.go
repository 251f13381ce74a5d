package extraction

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/campaign-brief/internal/browser"
	"github.com/jmylchreest/campaign-brief/internal/challenge"
	"github.com/jmylchreest/campaign-brief/internal/config"
	"github.com/jmylchreest/campaign-brief/internal/consent"
)

// NewBrowserService builds a Service backed by a local browser launcher, reading
// the phrase lists from src. Missing lists fall back to the built-in defaults.
// The caller owns the returned launcher and must Close it.
func NewBrowserService(ctx context.Context, cfg *config.Config, src config.ResourceSource, logger *slog.Logger) (*Service, *browser.Launcher, error) {
	denylist, err := config.LoadPhraseList(ctx, src, config.DenylistResource, DefaultDenylist)
	if err != nil {
		return nil, nil, err
	}
	blockPhrases, err := config.LoadPhraseList(ctx, src, config.BlockPhrasesResource, challenge.DefaultPhrases)
	if err != nil {
		return nil, nil, err
	}
	xpaths, err := config.LoadPhraseList(ctx, src, config.ConsentXPathsResource, consent.DefaultXPaths)
	if err != nil {
		return nil, nil, err
	}

	launcher := browser.NewLauncher(cfg, logger)
	dismisser := consent.NewDismisser(logger, xpaths, cfg.ConsentTimeout)

	logger.Info("extraction service configured",
		"max_sessions", cfg.BrowserMaxSessions,
		"proxy_enabled", launcher.ProxyConfigured(),
		"denylist_entries", len(denylist),
		"block_phrases", len(blockPhrases),
		"consent_xpaths", len(xpaths),
		"consent_timeout", dismisser.Timeout(),
	)

	svc := NewService(ServiceConfig{
		Prober:         NewHTTPProber(cfg.ProbeTimeout),
		Renderer:       NewRodRenderer(launcher, dismisser, cfg.RenderTimeout, logger),
		Detector:       challenge.NewDetector(blockPhrases),
		Denylist:       NewDenylist(denylist),
		ProxyAvailable: launcher.ProxyConfigured(),
		Logger:         logger,
	})
	return svc, launcher, nil
}
