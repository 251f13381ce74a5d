package extraction

import (
	"context"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// DefaultProbeTimeout bounds the reachability probe.
const DefaultProbeTimeout = 5 * time.Second

const probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Prober checks whether a page answers a plain HTTP request.
type Prober interface {
	Probe(ctx context.Context, url string) (status int, err error)
}

// HTTPProber probes with a single GET and discards the body.
type HTTPProber struct {
	client *resty.Client
}

// NewHTTPProber creates a prober with the given timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("User-Agent", probeUserAgent)
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &HTTPProber{client: client}
}

// Probe returns the response status of a GET to url.
func (p *HTTPProber) Probe(ctx context.Context, url string) (int, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, err
	}
	if body := resp.RawBody(); body != nil {
		_ = body.Close()
	}
	return resp.StatusCode(), nil
}

// needsProxy reports whether a probe result calls for the proxied browser.
func needsProxy(status int, err error) bool {
	return err != nil || status < 200 || status > 299
}
