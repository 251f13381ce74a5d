package handlers

import (
	"context"

	"github.com/jmylchreest/campaign-brief/internal/browser"
	"github.com/jmylchreest/campaign-brief/internal/models"
	"github.com/jmylchreest/campaign-brief/internal/version"
)

// Extraction modes reported by the campaign API health check.
const (
	ExtractionInProcess = "in-process"
	ExtractionRemote    = "remote"
)

// SessionStats reports browser session usage. *browser.Launcher implements it.
type SessionStats interface {
	Stats() browser.Stats
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	provider   string
	extraction string
	sessions   SessionStats
}

// NewHealthHandler creates a new health handler. provider and extraction are
// empty on the extraction server; sessions is nil when no browser runs in-process.
func NewHealthHandler(provider, extraction string, sessions SessionStats) *HealthHandler {
	return &HealthHandler{provider: provider, extraction: extraction, sessions: sessions}
}

// HealthOutput is the output wrapper for Huma.
type HealthOutput struct {
	Body models.HealthResponse
}

// Handle returns the health status.
func (h *HealthHandler) Handle(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := models.HealthResponse{
		Status:     "healthy",
		Version:    version.Get().String(),
		Uptime:     int64(version.Uptime().Seconds()),
		Provider:   h.provider,
		Extraction: h.extraction,
	}
	if h.sessions != nil {
		stats := h.sessions.Stats()
		resp.ActiveSessions = stats.Active
		resp.MaxSessions = stats.MaxSessions
	}
	return &HealthOutput{Body: resp}, nil
}
