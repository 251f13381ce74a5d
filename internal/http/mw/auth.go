// Package mw contains HTTP middleware shared by the campaign API and the
// extraction server.
package mw

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/campaign-brief/internal/models"
	"github.com/jmylchreest/campaign-brief/internal/signing"
)

// maxSignedBody caps the request body read for signature verification.
const maxSignedBody = 1 << 20

// AuthConfig holds configuration for the signed-request middleware.
type AuthConfig struct {
	// Secret is the HMAC secret shared with the campaign API.
	Secret string

	// Skip exempts requests from verification (health checks).
	Skip func(*http.Request) bool

	Logger *slog.Logger
}

// SignedRequests returns middleware that accepts only requests carrying a valid
// X-Campaign-Signature for their method, path and body.
func SignedRequests(cfg AuthConfig) func(http.Handler) http.Handler {
	signer := signing.NewSigner(cfg.Secret)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody+1))
			if err != nil {
				writeAuthError(w, r, http.StatusBadRequest, "bad_request", "failed to read request body")
				return
			}
			if len(body) > maxSignedBody {
				writeAuthError(w, r, http.StatusRequestEntityTooLarge, "bad_request", "request body too large")
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			err = signer.Verify(
				r.Header.Get(signing.HeaderSignature),
				r.Header.Get(signing.HeaderTimestamp),
				r.Method,
				r.URL.Path,
				body,
			)
			if err != nil {
				logger.Warn("rejected unsigned request",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeAuthError(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := models.NewErrorResponse(code, message, status, middleware.GetReqID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
