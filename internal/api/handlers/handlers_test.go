package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/browser"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGenerator returns canned results and records streamed requests.
type fakeGenerator struct {
	result   *models.CampaignResult
	err      error
	chunks   []string
	streamed *models.CampaignRequest
}

func (f *fakeGenerator) Buffered(_ context.Context, req *models.CampaignRequest) (*models.CampaignResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeGenerator) Stream(_ context.Context, req *models.CampaignRequest, w io.Writer) error {
	f.streamed = req
	for _, c := range f.chunks {
		if _, err := io.WriteString(w, c); err != nil {
			return err
		}
	}
	return f.err
}

func strPtr(s string) *string { return &s }

func TestCampaignHandler_Buffered(t *testing.T) {
	gen := &fakeGenerator{result: &models.CampaignResult{
		Campaign: &models.CampaignArtifact{Title: "Bottle Bonanza", Platform: map[string]any{"instagram": "Post a reel"}},
	}}
	h := NewCampaignHandler(gen, testLogger())

	out, err := h.Buffered(context.Background(), &CampaignInput{Body: models.CampaignRequest{URL: strPtr("https://acme.example")}})
	if err != nil {
		t.Fatalf("Buffered() error = %v", err)
	}
	if out.Body["title"] != "Bottle Bonanza" || out.Body["instagram"] != "Post a reel" {
		t.Errorf("Body = %v", out.Body)
	}
}

func TestCampaignHandler_BufferedErrors(t *testing.T) {
	tests := []struct {
		name       string
		req        models.CampaignRequest
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty request", models.CampaignRequest{}, nil, http.StatusBadRequest, "validation_error"},
		{"blocked", models.CampaignRequest{URL: strPtr("https://acme.example")}, &apperr.BlockedError{URL: "https://acme.example"}, http.StatusForbidden, "blocked"},
		{"provider down", models.CampaignRequest{URL: strPtr("https://acme.example")}, &apperr.TransportError{Target: "openai", Err: errors.New("503")}, http.StatusBadGateway, "transport_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCampaignHandler(&fakeGenerator{err: tt.err}, testLogger())
			ctx := logging.WithRequestID(context.Background(), "req-1")

			_, err := h.Buffered(ctx, &CampaignInput{Body: tt.req})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Buffered() error = %v, want APIError", err)
			}
			if apiErr.GetStatus() != tt.wantStatus {
				t.Errorf("GetStatus() = %d, want %d", apiErr.GetStatus(), tt.wantStatus)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.RequestID != "req-1" {
				t.Errorf("RequestID = %q, want req-1", apiErr.RequestID)
			}
		})
	}
}

func TestCampaignHandler_Streaming(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"Request Received!\n\n", "**Campaign Title**\n", "Bottles"}}
	h := NewCampaignHandler(gen, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/streaming", strings.NewReader(`{"url":"https://acme.example","lang":"DA"}`))
	rec := httptest.NewRecorder()
	h.Streaming(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if got := rec.Body.String(); got != "Request Received!\n\n**Campaign Title**\nBottles" {
		t.Errorf("body = %q", got)
	}
	if !rec.Flushed {
		t.Error("stream should be flushed")
	}
	if gen.streamed == nil || gen.streamed.Lang != "da" {
		t.Errorf("streamed request = %+v, want normalized lang", gen.streamed)
	}
}

func TestCampaignHandler_StreamingRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"not json", `{`, "Invalid request body"},
		{"mail type alone", `{"mailType":"invite"}`, "mail_type can't be by itself"},
		{"unsupported language", `{"url":"https://acme.example","lang":"xx"}`, "Unsupported language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			h := NewCampaignHandler(gen, testLogger())

			rec := httptest.NewRecorder()
			h.Streaming(rec, httptest.NewRequest(http.MethodPost, "/streaming", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body is not an ErrorResponse: %v", err)
			}
			if !strings.Contains(resp.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", resp.Message, tt.wantMsg)
			}
			if gen.streamed != nil {
				t.Error("generator should not run for a rejected request")
			}
		})
	}
}

func TestTestStreamHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTestStreamHandler(time.Millisecond).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	lines := strings.Split(rec.Body.String(), "\n")
	if lines[0] != `{"message":"This is the initial JSON response"}` {
		t.Errorf("first line = %q", lines[0])
	}
	var data []string
	for _, l := range lines {
		if strings.HasPrefix(l, "data: ") {
			data = append(data, l)
		}
	}
	if len(data) != 10 || data[0] != "data: 0" || data[9] != "data: 9" {
		t.Errorf("data lines = %v, want data: 0..9", data)
	}
}

func TestTestStreamHandler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	NewTestStreamHandler(time.Hour).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx))

	if strings.Contains(rec.Body.String(), "data:") {
		t.Errorf("body = %q, want no data lines after cancel", rec.Body.String())
	}
}

type fakeExtractor struct {
	resp *models.ExtractResponse
	err  error
}

func (f *fakeExtractor) Extract(context.Context, models.ExtractRequest) (*models.ExtractResponse, error) {
	return f.resp, f.err
}

func TestExtractHandler_Handle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := NewExtractHandler(&fakeExtractor{resp: &models.ExtractResponse{ExtractedText: "Acme", Attempts: 1}}, testLogger())
		out, err := h.Handle(context.Background(), &ExtractInput{Body: models.ExtractRequest{URL: "https://acme.example"}})
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if out.Body.ExtractedText != "Acme" {
			t.Errorf("ExtractedText = %q, want Acme", out.Body.ExtractedText)
		}
	})

	t.Run("blocked", func(t *testing.T) {
		h := NewExtractHandler(&fakeExtractor{err: &apperr.BlockedError{URL: "https://acme.example"}}, testLogger())
		_, err := h.Handle(context.Background(), &ExtractInput{Body: models.ExtractRequest{URL: "https://acme.example"}})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.GetStatus() != http.StatusForbidden {
			t.Fatalf("Handle() error = %v, want 403 APIError", err)
		}
		if apiErr.Message != "Access to https://acme.example is blocked." {
			t.Errorf("Message = %q", apiErr.Message)
		}
	})
}

type fakeStats struct{ stats browser.Stats }

func (f fakeStats) Stats() browser.Stats { return f.stats }

func TestHealthHandler_Handle(t *testing.T) {
	t.Run("campaign api", func(t *testing.T) {
		out, err := NewHealthHandler("openai", ExtractionRemote, nil).Handle(context.Background(), nil)
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if out.Body.Status != "healthy" {
			t.Errorf("Status = %q, want %q", out.Body.Status, "healthy")
		}
		if out.Body.Provider != "openai" || out.Body.Extraction != ExtractionRemote {
			t.Errorf("Body = %+v", out.Body)
		}
	})

	t.Run("extraction server", func(t *testing.T) {
		out, _ := NewHealthHandler("", "", fakeStats{browser.Stats{Active: 2, MaxSessions: 4}}).Handle(context.Background(), nil)
		if out.Body.ActiveSessions != 2 || out.Body.MaxSessions != 4 {
			t.Errorf("sessions = %d/%d, want 2/4", out.Body.ActiveSessions, out.Body.MaxSessions)
		}
	})
}

func TestAPIError_Body(t *testing.T) {
	err := NewAPIError(context.Background(), apperr.NewValidation("url", "bad url"))
	body, _ := json.Marshal(err)
	var got map[string]any
	_ = json.Unmarshal(body, &got)
	if got["status"] != "error" || got["code"] != "validation_error" || got["message"] != "bad url" {
		t.Errorf("body = %s", body)
	}
	if got["httpStatus"] != float64(400) {
		t.Errorf("httpStatus = %v, want 400", got["httpStatus"])
	}
}
