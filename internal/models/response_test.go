package models

import (
	"encoding/json"
	"testing"
)

func TestCampaignArtifact_Map(t *testing.T) {
	c := &CampaignArtifact{
		Title:        "Eco Bottles Affiliate",
		AboutCompany: "We sell bottles.",
		Description:  "Promote reusable bottles.",
		Platform: map[string]any{
			"instagram": "Use stories",
			"title":     "should be overridden",
		},
	}

	m := c.Map()
	if m["title"] != "Eco Bottles Affiliate" {
		t.Errorf("title = %v, want campaign title to win", m["title"])
	}
	if m["instagram"] != "Use stories" {
		t.Errorf("instagram = %v, want %q", m["instagram"], "Use stories")
	}
	if len(m) != 4 {
		t.Errorf("len(Map()) = %d, want 4", len(m))
	}
}

func TestCampaignFromObject(t *testing.T) {
	c := CampaignFromObject(map[string]any{
		"title":        "T",
		"aboutCompany": "A",
		"description":  []any{"one", "two"},
		"keywords":     "eco",
	})

	if c.Title != "T" || c.AboutCompany != "A" {
		t.Errorf("CampaignFromObject() = %+v, want title T and about A", c)
	}
	if c.Description != `["one","two"]` {
		t.Errorf("Description = %q, want JSON-encoded list", c.Description)
	}
	if c.Platform["keywords"] != "eco" {
		t.Errorf("Platform[keywords] = %v, want %q", c.Platform["keywords"], "eco")
	}
}

func TestMessageArtifact(t *testing.T) {
	t.Run("wraps fields under intent", func(t *testing.T) {
		m := NewMessageArtifact(MailInvite, map[string]any{"subject": "Hi", "body": "Join us"})
		b, err := json.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != `{"invite":{"body":"Join us","subject":"Hi"}}` {
			t.Errorf("Marshal() = %s", b)
		}
	})

	t.Run("unwraps already keyed answer", func(t *testing.T) {
		m := NewMessageArtifact(MailReject, map[string]any{"reject": map[string]any{"subject": "Sorry"}})
		if m.Fields["subject"] != "Sorry" {
			t.Errorf("Fields = %v, want inner object", m.Fields)
		}
	})
}

func TestCampaignResult_Map(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		r := &CampaignResult{Message: NewMessageArtifact(MailInvite, map[string]any{"subject": "Hi"})}
		m := r.Map()
		if len(m) != 1 {
			t.Errorf("Map() = %v, want only the message key", m)
		}
		if _, ok := m["message"]; !ok {
			t.Error("Map() missing message key")
		}
	})

	t.Run("campaign without message", func(t *testing.T) {
		r := &CampaignResult{Campaign: &CampaignArtifact{Title: "T"}}
		m := r.Map()
		if _, ok := m["message"]; ok {
			t.Error("Map() should not contain a message key")
		}
		if m["title"] != "T" {
			t.Errorf("title = %v, want %q", m["title"], "T")
		}
	})
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("blocked", "Access to https://example.com is blocked.", 403, "req-123")

	if resp.Status != "error" {
		t.Errorf("Status = %q, want %q", resp.Status, "error")
	}
	if resp.Code != "blocked" {
		t.Errorf("Code = %q, want %q", resp.Code, "blocked")
	}
	if resp.HTTPCode != 403 {
		t.Errorf("HTTPCode = %d, want 403", resp.HTTPCode)
	}
	if resp.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want %q", resp.RequestID, "req-123")
	}
	if resp.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}
}
