// Package consent provides cookie consent banner dismissal for rendered pages.
package consent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultTimeout bounds the whole dismissal attempt.
const DefaultTimeout = 3 * time.Second

const pollInterval = 250 * time.Millisecond

// Common cookie consent button selectors, ordered by specificity.
var buttonSelectors = []string{
	// OneTrust
	`button#onetrust-accept-btn-handler`,
	`#accept-recommended-btn-handler`,
	`button[id*="onetrust-accept"]`,

	// Cookiebot
	`button#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll`,
	`button#CybotCookiebotDialogBodyButtonAccept`,
	`a#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll`,

	// Quantcast/TCF
	`button.qc-cmp2-summary-buttons button[mode="primary"]`,

	// TrustArc
	`#truste-consent-button`,

	// Didomi
	`button#didomi-notice-agree-button`,

	// Coi (common on Danish sites)
	`button.coi-banner__accept`,
	`#coiPage-1 .coi-banner__accept`,

	// Generic
	`button[data-testid="accept-cookies"]`,
	`button[data-testid="cookie-accept"]`,
	`button.cookie-accept`,
	`button.accept-cookies`,
	`button#accept-cookies`,
	`button#acceptCookies`,
	`div[class*="cookie"] button[class*="accept"]`,
	`div[class*="consent"] button[class*="accept"]`,
}

// DefaultXPaths are tried after the CSS selectors when no XPath list is configured.
var DefaultXPaths = []string{
	`//button[contains(translate(., 'ACEPT', 'acept'), 'accept')]`,
	`//button[contains(., 'Tillad alle')]`,
	`//button[contains(., 'Accepter')]`,
	`//button[contains(., 'Alle akzeptieren')]`,
}

// acceptTexts are matched against button and link text as a last resort.
var acceptTexts = []string{
	"Accept All",
	"Accept all",
	"Accept Cookies",
	"I Accept",
	"I Agree",
	"Allow all",
	"Tillad alle",
	"Accepter alle",
	"Alle akzeptieren",
	"Tout accepter",
}

const clickByTextJS = `(texts) => {
	const candidates = document.querySelectorAll('button, a');
	for (const text of texts) {
		for (const el of candidates) {
			if (!el.textContent.includes(text)) continue;
			const rect = el.getBoundingClientRect();
			if (rect.width > 0 && rect.height > 0) {
				el.click();
				return text;
			}
		}
	}
	return "";
}`

// Dismisser clicks away cookie consent banners. Failure to find a banner is not an error.
type Dismisser struct {
	logger  *slog.Logger
	xpaths  []string
	timeout time.Duration
}

// NewDismisser creates a dismisser. An empty xpaths list uses DefaultXPaths; a
// non-positive timeout uses DefaultTimeout.
func NewDismisser(logger *slog.Logger, xpaths []string, timeout time.Duration) *Dismisser {
	if len(xpaths) == 0 {
		xpaths = DefaultXPaths
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dismisser{
		logger:  logger,
		xpaths:  xpaths,
		timeout: timeout,
	}
}

// Timeout returns the bound applied to a single Dismiss call.
func (d *Dismisser) Timeout() time.Duration {
	return d.timeout
}

// Dismiss polls the page for a consent control until one is clicked or the
// timeout elapses. Returns true if a banner was dismissed.
func (d *Dismisser) Dismiss(ctx context.Context, page *rod.Page) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	p := page.Context(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if d.tryOnce(p) {
			return true
		}
		select {
		case <-ctx.Done():
			d.logger.Debug("no consent banner found", "timeout", d.timeout)
			return false
		case <-ticker.C:
		}
	}
}

func (d *Dismisser) tryOnce(page *rod.Page) bool {
	for _, selector := range buttonSelectors {
		has, el, err := page.Has(selector)
		if err != nil || !has {
			continue
		}
		if d.click(el, "selector", selector) {
			return true
		}
	}

	for _, xpath := range d.xpaths {
		has, el, err := page.HasX(xpath)
		if err != nil || !has {
			continue
		}
		if d.click(el, "xpath", xpath) {
			return true
		}
	}

	res, err := page.Eval(clickByTextJS, acceptTexts)
	if err != nil {
		return false
	}
	if text := res.Value.Str(); text != "" {
		d.logger.Info("dismissed cookie consent banner", "method", "text_search", "text", text)
		return true
	}
	return false
}

func (d *Dismisser) click(el *rod.Element, method, target string) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		d.logger.Debug("failed to click consent control", method, target, "error", err)
		return false
	}
	d.logger.Info("dismissed cookie consent banner", method, strings.TrimSpace(target))
	return true
}
