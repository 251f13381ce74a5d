package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/browser"
	"github.com/jmylchreest/campaign-brief/internal/consent"
	"github.com/jmylchreest/campaign-brief/internal/logging"
)

// DefaultRenderTimeout bounds navigation and load of a single attempt.
const DefaultRenderTimeout = 60 * time.Second

// RenderedPage is the DOM snapshot of one attempt.
type RenderedPage struct {
	HTML    string
	Title   string
	Elapsed time.Duration
}

// Renderer loads a page in a real browser.
type Renderer interface {
	Render(ctx context.Context, url string, useProxy bool) (*RenderedPage, error)
}

// RodRenderer renders pages in a fresh browser session per call.
type RodRenderer struct {
	launcher  *browser.Launcher
	dismisser *consent.Dismisser
	timeout   time.Duration
	logger    *slog.Logger
}

// NewRodRenderer creates a renderer.
func NewRodRenderer(launcher *browser.Launcher, dismisser *consent.Dismisser, timeout time.Duration, logger *slog.Logger) *RodRenderer {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &RodRenderer{
		launcher:  launcher,
		dismisser: dismisser,
		timeout:   timeout,
		logger:    logger,
	}
}

// Render opens a session, navigates to url, waits for load, dismisses any consent
// banner and snapshots the DOM. The session is closed before Render returns.
func (r *RodRenderer) Render(ctx context.Context, url string, useProxy bool) (*RenderedPage, error) {
	start := time.Now()
	logger := logging.FromContext(ctx, r.logger)

	session, err := r.launcher.Acquire(ctx, useProxy)
	if err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: err}
	}
	defer session.Close()

	page, err := browser.NewStealthPage(session.Browser)
	if err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: fmt.Errorf("open page: %w", err)}
	}
	defer func() { _ = page.Close() }()

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p := page.Context(renderCtx)

	if err := p.Navigate(url); err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: fmt.Errorf("navigate: %w", err)}
	}
	if err := p.WaitLoad(); err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: fmt.Errorf("wait load: %w", err)}
	}
	logger.Info("established connection", "url", url, "proxied", useProxy, "session_id", session.ID)

	r.dismisser.Dismiss(renderCtx, page)

	html, err := p.HTML()
	if err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: fmt.Errorf("read html: %w", err)}
	}
	info, err := p.Info()
	if err != nil {
		return nil, &apperr.TransportError{Target: "browser", Err: fmt.Errorf("read page info: %w", err)}
	}

	return &RenderedPage{
		HTML:    html,
		Title:   info.Title,
		Elapsed: time.Since(start),
	}, nil
}
