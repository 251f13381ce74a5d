package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/extraction"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
)

// ExtractHandler serves POST /extract on the extraction server.
type ExtractHandler struct {
	extractor extraction.Extractor
	logger    *slog.Logger
}

// NewExtractHandler creates an extract handler.
func NewExtractHandler(extractor extraction.Extractor, logger *slog.Logger) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, logger: logger}
}

// ExtractInput is the input wrapper for Huma.
type ExtractInput struct {
	Body models.ExtractRequest
}

// ExtractOutput is the output wrapper for Huma.
type ExtractOutput struct {
	Body models.ExtractResponse
}

// Handle extracts the text of the requested page.
func (h *ExtractHandler) Handle(ctx context.Context, input *ExtractInput) (*ExtractOutput, error) {
	start := time.Now()
	logger := logging.FromContext(ctx, h.logger)

	resp, err := h.extractor.Extract(ctx, input.Body)
	if err != nil {
		logger.Warn("extraction failed",
			"url", input.Body.URL,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, NewAPIError(ctx, err)
	}

	logger.Info("extraction served",
		"url", input.Body.URL,
		"proxy_enabled", resp.ProxyEnabled,
		"attempts", resp.Attempts,
		"text_length", len(resp.ExtractedText),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &ExtractOutput{Body: *resp}, nil
}
