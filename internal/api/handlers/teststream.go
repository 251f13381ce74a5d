package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const testStreamLines = 10

// TestStreamHandler serves GET /test, a small stream for checking that proxies and
// clients pass chunked responses through unbuffered.
type TestStreamHandler struct {
	interval time.Duration
}

// NewTestStreamHandler creates a test stream handler pacing lines by interval.
func NewTestStreamHandler(interval time.Duration) *TestStreamHandler {
	return &TestStreamHandler{interval: interval}
}

func (h *TestStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming not supported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	initial, _ := json.Marshal(map[string]string{"message": "This is the initial JSON response"})
	_, _ = fmt.Fprintf(w, "%s\n\n", initial)
	flusher.Flush()

	ctx := r.Context()
	for i := 0; i < testStreamLines; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.interval):
		}
		_, _ = fmt.Fprintf(w, "data: %d\n", i)
		flusher.Flush()
	}
}
