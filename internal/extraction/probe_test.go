package extraction

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPProber_Probe(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
		wantProxy  bool
	}{
		{"ok", http.StatusOK, http.StatusOK, false},
		{"no content", http.StatusNoContent, http.StatusNoContent, false},
		{"forbidden", http.StatusForbidden, http.StatusForbidden, true},
		{"server error", http.StatusInternalServerError, http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			status, err := NewHTTPProber(time.Second).Probe(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if got := needsProxy(status, err); got != tt.wantProxy {
				t.Errorf("needsProxy() = %v, want %v", got, tt.wantProxy)
			}
			if gotUA == "" {
				t.Error("probe should send a browser User-Agent")
			}
		})
	}
}

func TestHTTPProber_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	status, err := NewHTTPProber(50*time.Millisecond).Probe(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Probe() should time out")
	}
	if !needsProxy(status, err) {
		t.Error("a timed-out probe should call for the proxy")
	}
}

func TestNeedsProxy(t *testing.T) {
	if !needsProxy(0, errors.New("dial tcp: no such host")) {
		t.Error("needsProxy() = false for a transport error")
	}
	if needsProxy(http.StatusOK, nil) {
		t.Error("needsProxy() = true for 200")
	}
	if !needsProxy(http.StatusMovedPermanently, nil) {
		t.Error("needsProxy() = false for an unfollowed redirect")
	}
}
