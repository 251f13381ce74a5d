// Package shutdown signals the extraction server to exit once it has been idle,
// so an on-demand host can scale it to zero between scrapes.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCheckInterval = 10 * time.Second

// IdleMonitor tracks in-flight extractions and closes Done once nothing has
// happened for the configured timeout.
type IdleMonitor struct {
	timeout  time.Duration
	interval time.Duration
	logger   *slog.Logger

	lastActivity atomic.Int64 // unix nanos
	inFlight     atomic.Int64

	isHealthCheck func(*http.Request) bool
	busy          func() int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	wg       sync.WaitGroup
}

// IdleConfig configures an IdleMonitor.
type IdleConfig struct {
	// Timeout of inactivity before Done is closed. Zero or negative disables the monitor.
	Timeout time.Duration

	// CheckInterval defaults to 10s.
	CheckInterval time.Duration

	// IsHealthCheck identifies requests that must not count as activity.
	// Defaults to IsHealthCheck.
	IsHealthCheck func(*http.Request) bool

	// Busy reports work that outlives a request, such as open browser sessions.
	Busy func() int

	Logger *slog.Logger
}

// NewIdleMonitor creates a monitor. It does nothing until Start is called.
func NewIdleMonitor(cfg IdleConfig) *IdleMonitor {
	if cfg.IsHealthCheck == nil {
		cfg.IsHealthCheck = IsHealthCheck
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.Busy == nil {
		cfg.Busy = func() int { return 0 }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &IdleMonitor{
		timeout:       cfg.Timeout,
		interval:      cfg.CheckInterval,
		logger:        cfg.Logger,
		isHealthCheck: cfg.IsHealthCheck,
		busy:          cfg.Busy,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	m.touch()
	return m
}

// Enabled reports whether the monitor will ever close Done.
func (m *IdleMonitor) Enabled() bool {
	return m.timeout > 0
}

// Start begins the idle checks. It is a no-op when the monitor is disabled.
func (m *IdleMonitor) Start() {
	if !m.Enabled() {
		m.logger.Info("idle shutdown disabled (set IDLE_TIMEOUT to enable)")
		return
	}
	m.logger.Info("idle shutdown enabled", "timeout", m.timeout)

	m.wg.Add(1)
	go m.run()
}

// Stop ends the idle checks without closing Done.
func (m *IdleMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// Done is closed when the idle timeout elapses with nothing in flight.
func (m *IdleMonitor) Done() <-chan struct{} {
	return m.doneCh
}

// InFlight returns the number of tracked requests currently being served.
func (m *IdleMonitor) InFlight() int64 {
	return m.inFlight.Load()
}

// IdleFor returns the time since the last tracked activity.
func (m *IdleMonitor) IdleFor() time.Duration {
	return time.Since(time.Unix(0, m.lastActivity.Load()))
}

// Middleware tracks every non-health-check request as activity.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isHealthCheck(r) {
			next.ServeHTTP(w, r)
			return
		}
		m.inFlight.Add(1)
		m.touch()
		defer func() {
			m.inFlight.Add(-1)
			m.touch()
		}()
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) touch() {
	m.lastActivity.Store(time.Now().UnixNano())
}

func (m *IdleMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if m.idle() {
				m.logger.Info("idle timeout reached, shutting down",
					"idle_for", m.IdleFor().Round(time.Second),
					"timeout", m.timeout,
				)
				close(m.doneCh)
				return
			}
		}
	}
}

func (m *IdleMonitor) idle() bool {
	if m.inFlight.Load() > 0 || m.busy() > 0 {
		return false
	}
	return m.IdleFor() > m.timeout
}

// IsHealthCheck reports whether r is a platform health probe.
func IsHealthCheck(r *http.Request) bool {
	if strings.Contains(r.Header.Get("User-Agent"), "HealthCheck") {
		return true
	}
	switch r.URL.Path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}
