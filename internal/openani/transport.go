package openani

import (
	"net/http"

	"golang.org/x/time/rate"
)

// transport stamps the configured user agent on every request and, when a
// rate is configured, waits for the limiter before hitting the network.
type transport struct {
	base      http.RoundTripper
	userAgent string
	limiter   *rate.Limiter
}

func newTransport(base http.RoundTripper, userAgent string, perSecond float64) *transport {
	if base == nil {
		base = http.DefaultTransport
	}

	t := &transport{base: base, userAgent: userAgent}
	if perSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}

	return t
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	req = req.Clone(req.Context())
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client with the shared transport. It carries no
// timeout; callers bound requests through their context.
func NewHTTPClient(userAgent string, perSecond float64) *http.Client {
	return &http.Client{Transport: newTransport(http.DefaultTransport, userAgent, perSecond)}
}
