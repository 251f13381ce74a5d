// Package models defines API request and response types.
package models

import (
	"net/url"
	"strings"

	"github.com/jmylchreest/campaign-brief/internal/apperr"
)

// MailType selects which follow-up email template is generated.
type MailType string

// Supported mail types.
const (
	MailInvite  MailType = "invite"
	MailWelcome MailType = "welcome"
	MailReject  MailType = "reject"
)

// Valid reports whether m is one of the supported mail types.
func (m MailType) Valid() bool {
	switch m {
	case MailInvite, MailWelcome, MailReject:
		return true
	default:
		return false
	}
}

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = "en"

// CampaignRequest is the body accepted by /buffered and /streaming.
// Absent fields stay nil; Validate enforces the allowed combinations.
type CampaignRequest struct {
	URL              *string   `json:"url,omitempty" doc:"Website the affiliate campaign is based on" example:"https://example.com"`
	MailType         *MailType `json:"mailType,omitempty" doc:"Email template to generate: invite, welcome or reject"`
	CustomerCampaign *string   `json:"customerCampaign,omitempty" doc:"Existing campaign text to build the email from"`
	Lang             string    `json:"lang,omitempty" doc:"Two letter language code for the generated content" example:"en"`
}

// Validate normalizes the language and checks the field combination rules.
// The only accepted shapes are {url}, {url, mailType} and {customerCampaign, mailType}.
func (r *CampaignRequest) Validate() error {
	hasURL := r.URL != nil
	hasMail := r.MailType != nil
	hasCampaign := r.CustomerCampaign != nil

	switch {
	case hasURL && hasMail && hasCampaign:
		return apperr.NewValidation("request", "All three variables can't be present at the same time.")
	case hasURL && hasCampaign && !hasMail:
		return apperr.NewValidation("request", "Please provide Either a campaign or URL, not both.")
	case hasMail && !hasURL && !hasCampaign:
		return apperr.NewValidation("mailType", "mail_type can't be by itself. Please provide either a campaign or URL")
	case hasCampaign && !hasMail && !hasURL:
		return apperr.NewValidation("customerCampaign", "The provided campaign can't be processed without a mail_type.")
	case !hasURL && !hasCampaign:
		return apperr.NewValidation("request", "Please provide either a campaign or URL")
	}

	if hasURL {
		if err := validateURL(*r.URL); err != nil {
			return err
		}
	}
	if hasMail && !r.MailType.Valid() {
		return apperr.NewValidation("mailType",
			"Invalid mail_type "+string(*r.MailType)+". Please provide a valid mail_type: 'invite', 'welcome' or 'reject'.")
	}
	if hasCampaign && strings.TrimSpace(*r.CustomerCampaign) == "" {
		return apperr.NewValidation("customerCampaign", "The provided campaign is empty.")
	}

	r.Lang = strings.ToLower(strings.TrimSpace(r.Lang))
	if r.Lang == "" {
		r.Lang = DefaultLanguage
	}
	if _, ok := LanguageName(r.Lang); !ok {
		return apperr.NewValidation("lang", "Unsupported language: '"+r.Lang+"', Please try another.")
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.NewValidation("url", "Invalid URL: '"+raw+"'. Please provide an absolute http(s) URL.")
	}
	return nil
}

// ShouldGenerateCampaign reports whether the request takes the scrape-and-generate path.
func (r *CampaignRequest) ShouldGenerateCampaign() bool {
	return r.CustomerCampaign == nil && r.URL != nil
}

// ShouldGenerateMessage reports whether an email template is requested.
func (r *CampaignRequest) ShouldGenerateMessage() bool {
	return r.MailType != nil
}

// TargetURL returns the requested URL or an empty string.
func (r *CampaignRequest) TargetURL() string {
	if r.URL == nil {
		return ""
	}
	return *r.URL
}

// LanguageName returns the display name appended to instructions.
func (r *CampaignRequest) LanguageName() string {
	name, ok := LanguageName(r.Lang)
	if !ok {
		name, _ = LanguageName(DefaultLanguage)
	}
	return name
}

// ExtractRequest is the body accepted by the extraction service.
type ExtractRequest struct {
	URL         string `json:"url" doc:"Page to extract text from" example:"https://example.com"`
	UseProxy    bool   `json:"useProxy,omitempty" doc:"Skip the probe and render through the proxied browser"`
	MonitorCost bool   `json:"monitorCost,omitempty" doc:"Log transfer size and time of proxied renders (requires useProxy)"`
}

// Validate checks the extraction request.
func (r *ExtractRequest) Validate() error {
	if r.URL == "" {
		return apperr.NewValidation("url", "Please provide a URL")
	}
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if r.MonitorCost && !r.UseProxy {
		return apperr.NewValidation("monitorCost", "Can't monitor bandwidth/costs when proxy is not defined.")
	}
	return nil
}

// ExtractResponse is returned by the extraction service.
type ExtractResponse struct {
	ExtractedText string `json:"extractedText"`
	ProxyEnabled  bool   `json:"proxyEnabled"`
	Attempts      int    `json:"attempts"`
}
