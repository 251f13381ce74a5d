// Package handlers provides HTTP handlers for the campaign API and the extraction server.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
	"github.com/jmylchreest/campaign-brief/internal/logging"
	"github.com/jmylchreest/campaign-brief/internal/models"
)

// APIError is returned from Huma handlers. It implements huma.StatusError so the
// embedded ErrorResponse is written as the response body.
type APIError struct {
	models.ErrorResponse
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) GetStatus() int {
	return e.HTTPCode
}

// NewAPIError converts err into an APIError carrying its mapped status and code.
func NewAPIError(ctx context.Context, err error) *APIError {
	return &APIError{ErrorResponse: *models.NewErrorResponse(
		apperr.Code(err),
		err.Error(),
		apperr.HTTPStatus(err),
		logging.GetRequestID(ctx),
	)}
}

// writeError writes err as a JSON ErrorResponse from a raw handler.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := NewAPIError(r.Context(), err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPCode)
	_ = json.NewEncoder(w).Encode(apiErr.ErrorResponse)
}
