// Package browser launches short-lived browser sessions for page rendering.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/campaign-brief/internal/config"
)

var (
	// ErrLauncherClosed is returned when acquiring from a closed launcher.
	ErrLauncherClosed = errors.New("browser launcher is closed")
	// ErrProxyNotConfigured is returned when a proxied session is requested
	// without PROXY_BROWSER_URL or PROXY_URL.
	ErrProxyNotConfigured = errors.New("proxy browser not configured")
)

// Session is a browser exclusively owned by one scrape attempt.
type Session struct {
	ID        string
	Browser   *rod.Browser
	Proxied   bool
	CreatedAt time.Time

	cleanup func()
	release func()
	once    sync.Once
}

// Close closes the browser and frees the session slot. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(s.release)
}

// Launcher hands out fresh browser sessions, bounded by a session limit.
type Launcher struct {
	mu     sync.Mutex
	slots  chan struct{}
	active map[string]*Session
	closed bool

	chromePath      string
	proxyBrowserURL string
	proxyURL        string
	logger          *slog.Logger

	// connect is swapped in tests.
	connect func(ctx context.Context, proxied bool) (*rod.Browser, func(), error)
}

// NewLauncher creates a launcher from the browser settings in cfg.
func NewLauncher(cfg *config.Config, logger *slog.Logger) *Launcher {
	limit := cfg.BrowserMaxSessions
	if limit < 1 {
		limit = 1
	}
	l := &Launcher{
		slots:           make(chan struct{}, limit),
		active:          make(map[string]*Session),
		chromePath:      cfg.ChromePath,
		proxyBrowserURL: cfg.ProxyBrowserURL,
		proxyURL:        cfg.ProxyURL,
		logger:          logger,
	}
	l.connect = l.connectBrowser
	return l
}

// ProxyConfigured reports whether proxied sessions can be created.
func (l *Launcher) ProxyConfigured() bool {
	return l.proxyBrowserURL != "" || l.proxyURL != ""
}

// Warmup ensures a Chromium binary is available so the first request does not pay
// for the download.
func (l *Launcher) Warmup() error {
	if l.chromePath != "" {
		l.logger.Info("using custom Chrome path", "path", l.chromePath)
		return nil
	}
	l.logger.Info("ensuring Chromium is available...")
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return fmt.Errorf("download chromium: %w", err)
	}
	l.logger.Info("Chromium ready", "path", path)
	return nil
}

// Acquire opens a new browser session, waiting for a free slot if the session
// limit is reached. The caller must Close the session.
func (l *Launcher) Acquire(ctx context.Context, proxied bool) (*Session, error) {
	if proxied && !l.ProxyConfigured() {
		return nil, ErrProxyNotConfigured
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, ErrLauncherClosed
	}

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	b, cleanup, err := l.connect(ctx, proxied)
	if err != nil {
		<-l.slots
		return nil, err
	}

	s := &Session{
		ID:        ulid.Make().String(),
		Browser:   b,
		Proxied:   proxied,
		CreatedAt: time.Now(),
		cleanup:   cleanup,
	}
	s.release = func() { l.release(s) }

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.closeBrowser(s)
		<-l.slots
		return nil, ErrLauncherClosed
	}
	l.active[s.ID] = s
	l.mu.Unlock()

	l.logger.Debug("browser session opened", "session_id", s.ID, "proxied", proxied)
	return s, nil
}

func (l *Launcher) release(s *Session) {
	l.mu.Lock()
	_, tracked := l.active[s.ID]
	delete(l.active, s.ID)
	l.mu.Unlock()

	l.closeBrowser(s)
	if tracked {
		<-l.slots
	}
	l.logger.Debug("browser session closed", "session_id", s.ID, "age", time.Since(s.CreatedAt))
}

// Close shuts down every open session and rejects further Acquire calls.
func (l *Launcher) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	sessions := make([]*Session, 0, len(l.active))
	for _, s := range l.active {
		sessions = append(sessions, s)
	}
	l.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Stats returns current session statistics.
func (l *Launcher) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Active:       len(l.active),
		MaxSessions:  cap(l.slots),
		ProxyEnabled: l.ProxyConfigured(),
	}
}

// Stats contains launcher statistics.
type Stats struct {
	Active       int  `json:"active"`
	MaxSessions  int  `json:"maxSessions"`
	ProxyEnabled bool `json:"proxyEnabled"`
}

// connectBrowser starts or connects to a browser. Proxied sessions prefer a remote
// CDP endpoint and fall back to launching Chromium with a proxy server flag.
// The returned cleanup stops a locally launched process.
func (l *Launcher) connectBrowser(_ context.Context, proxied bool) (*rod.Browser, func(), error) {
	if proxied && l.proxyBrowserURL != "" {
		b := rod.New().ControlURL(l.proxyBrowserURL)
		if err := b.Connect(); err != nil {
			return nil, nil, fmt.Errorf("connect proxy browser: %w", err)
		}
		return b, func() {}, nil
	}

	ln := launcher.New()
	if l.chromePath != "" {
		ln = ln.Bin(l.chromePath)
	}
	ln = ln.
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-infobars").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("window-size", "1920,1080").
		Set("lang", "en-US,en")
	if proxied {
		ln = ln.Proxy(l.proxyURL)
	}
	cleanup := func() {
		ln.Kill()
		ln.Cleanup()
	}

	u, err := ln.Launch()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}
	return b, cleanup, nil
}

func (l *Launcher) closeBrowser(s *Session) {
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			l.logger.Warn("error closing browser", "session_id", s.ID, "error", err)
		}
	}
	if s.cleanup != nil {
		s.cleanup()
	}
}
