package models

import (
	"encoding/json"
	"time"
)

// CampaignArtifact is a generated campaign brief plus the platform guideline fields
// produced alongside it.
type CampaignArtifact struct {
	Title        string
	AboutCompany string
	Description  string
	// Platform holds the arbitrary key/value fields of the platform guidelines completion.
	Platform map[string]any
}

// Map flattens the artifact into one object. Campaign fields win over platform keys.
func (c *CampaignArtifact) Map() map[string]any {
	out := make(map[string]any, len(c.Platform)+3)
	for k, v := range c.Platform {
		out[k] = v
	}
	out["title"] = c.Title
	out["aboutCompany"] = c.AboutCompany
	out["description"] = c.Description
	return out
}

// MarshalJSON encodes the flattened form.
func (c *CampaignArtifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// CampaignFromObject builds an artifact from a structured campaign completion.
// Keys other than the three campaign fields are kept as platform-style extras.
func CampaignFromObject(obj map[string]any) *CampaignArtifact {
	c := &CampaignArtifact{Platform: make(map[string]any)}
	for k, v := range obj {
		switch k {
		case "title":
			c.Title = stringify(v)
		case "aboutCompany":
			c.AboutCompany = stringify(v)
		case "description":
			c.Description = stringify(v)
		default:
			c.Platform[k] = v
		}
	}
	return c
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// MessageArtifact is a generated email template keyed by its mail type.
type MessageArtifact struct {
	Intent MailType
	Fields map[string]any
}

// NewMessageArtifact wraps a structured completion. When the model already keyed
// its answer by the mail type, the inner object is used.
func NewMessageArtifact(intent MailType, obj map[string]any) *MessageArtifact {
	if len(obj) == 1 {
		if inner, ok := obj[string(intent)].(map[string]any); ok {
			obj = inner
		}
	}
	return &MessageArtifact{Intent: intent, Fields: obj}
}

// Map returns {"<intent>": fields}.
func (m *MessageArtifact) Map() map[string]any {
	return map[string]any{string(m.Intent): m.Fields}
}

// MarshalJSON encodes the keyed form.
func (m *MessageArtifact) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// CampaignResult is the merged outcome of one buffered request.
type CampaignResult struct {
	Campaign *CampaignArtifact
	Message  *MessageArtifact
}

// Map merges campaign fields, platform fields and the optional message key.
func (r *CampaignResult) Map() map[string]any {
	out := map[string]any{}
	if r.Campaign != nil {
		out = r.Campaign.Map()
	}
	if r.Message != nil {
		out["message"] = r.Message.Map()
	}
	return out
}

// ErrorResponse is the structured error payload returned by both services.
type ErrorResponse struct {
	Status    string `json:"status"`            // always "error"
	Code      string `json:"code"`              // validation_error | blocked | transport_error | ...
	Message   string `json:"message"`           // Human-readable message
	HTTPCode  int    `json:"httpStatus"`        // Status the failure maps to
	RequestID string `json:"requestId,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp ms
}

// NewErrorResponse creates an error response.
func NewErrorResponse(code, message string, httpStatus int, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Status:    "error",
		Code:      code,
		Message:   message,
		HTTPCode:  httpStatus,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Uptime         int64  `json:"uptimeSeconds"`
	Provider       string `json:"provider,omitempty"`
	Extraction     string `json:"extraction,omitempty"` // in-process | remote
	ActiveSessions int    `json:"activeSessions"`
	MaxSessions    int    `json:"maxSessions,omitempty"`
}
