package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/campaign"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
)

// maxRequestBody caps the JSON body accepted by the raw streaming handler.
const maxRequestBody = 1 << 20

// Generator runs the campaign pipeline. *campaign.Orchestrator implements it.
type Generator interface {
	Buffered(ctx context.Context, req *models.CampaignRequest) (*models.CampaignResult, error)
	Stream(ctx context.Context, req *models.CampaignRequest, w io.Writer) error
}

var _ Generator = (*campaign.Orchestrator)(nil)

// CampaignHandler serves the buffered and streaming campaign endpoints.
type CampaignHandler struct {
	generator Generator
	logger    *slog.Logger
}

// NewCampaignHandler creates a campaign handler.
func NewCampaignHandler(generator Generator, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{generator: generator, logger: logger}
}

// CampaignInput is the input wrapper for Huma.
type CampaignInput struct {
	Body models.CampaignRequest
}

// CampaignOutput is the output wrapper for Huma. The body is the merged campaign,
// platform fields and optional message.
type CampaignOutput struct {
	Body map[string]any
}

// Buffered handles POST /buffered.
func (h *CampaignHandler) Buffered(ctx context.Context, input *CampaignInput) (*CampaignOutput, error) {
	start := time.Now()
	logger := logging.FromContext(ctx, h.logger)

	result, err := h.generator.Buffered(ctx, &input.Body)
	if err != nil {
		logger.Error("buffered request failed",
			"url", input.Body.TargetURL(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, NewAPIError(ctx, err)
	}

	logger.Info("buffered request served", "url", input.Body.TargetURL(), "duration_ms", time.Since(start).Milliseconds())
	return &CampaignOutput{Body: result.Map()}, nil
}

// Streaming handles POST /streaming. This is a raw HTTP handler (not Huma) so each
// write reaches the client as soon as it is produced.
func (h *CampaignHandler) Streaming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx, h.logger)

	var req models.CampaignRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, apperr.NewValidation("body", "Invalid request body: "+err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	start := time.Now()
	if err := h.generator.Stream(ctx, &req, &flushWriter{w: w, flusher: flusher}); err != nil {
		// The error block has already been written to the stream.
		return
	}
	logger.Info("streaming request served", "url", req.TargetURL(), "duration_ms", time.Since(start).Milliseconds())
}

// flushWriter flushes after every write.
type flushWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	f.flusher.Flush()
	return n, nil
}

// RegisterRawEndpoints adds the raw streaming endpoints to the OpenAPI document.
// The handlers themselves are mounted directly on the chi router.
func (h *CampaignHandler) RegisterRawEndpoints(api huma.API) {
	textStream := map[string]*huma.MediaType{
		"text/event-stream": {Schema: &huma.Schema{Type: huma.TypeString}},
	}

	api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "streamCampaign",
		Method:      http.MethodPost,
		Path:        "/streaming",
		Summary:     "Generate a campaign as a text stream",
		Description: `Streams the campaign text as it is generated, followed by the parsed campaign and
platform guidelines as an indented JSON block and, when a mailType was given, the email template.

Failures after the stream has started are written inline as a JSON error block.`,
		Tags: []string{"Campaign"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"application/json": {Schema: api.OpenAPI().Components.Schemas.Schema(reflect.TypeOf(models.CampaignRequest{}), true, "CampaignRequest")},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {Description: "Campaign text stream", Content: textStream},
		},
	})

	api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "testStream",
		Method:      http.MethodGet,
		Path:        "/test",
		Summary:     "Test stream",
		Description: "Returns a JSON line followed by ten data lines, one per interval.",
		Tags:        []string{"Health"},
		Responses: map[string]*huma.Response{
			"200": {Description: "Test stream", Content: textStream},
		},
	})
}
