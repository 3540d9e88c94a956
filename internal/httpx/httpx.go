package httpx

import (
	"maps"
	"net"
	"net/http"
	"time"
)

// Client is a small wrapper around http.Client with sane defaults.
// UserAgent and Headers are applied by the transport, so every consumer of
// HTTP (including third-party clients handed c.HTTP) sends them.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string

	base     http.RoundTripper
	wrappers []func(http.RoundTripper) http.RoundTripper
}

func New(timeout time.Duration, userAgent string) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
	c := &Client{UserAgent: userAgent, base: transport}
	c.HTTP = &http.Client{Timeout: timeout}
	c.HTTP.Transport = c.chain()
	return c
}

// Wrap returns a copy of c whose transport is fn applied to the current one.
// Header injection stays innermost and reads the copy's UserAgent and
// Headers, so setting them on the copy does not affect c.
func (c *Client) Wrap(fn func(http.RoundTripper) http.RoundTripper) *Client {
	cp := *c
	cp.wrappers = append(append([]func(http.RoundTripper) http.RoundTripper(nil), c.wrappers...), fn)
	cp.Headers = maps.Clone(c.Headers)
	hc := *c.HTTP
	cp.HTTP = &hc
	cp.HTTP.Transport = cp.chain()
	return &cp
}

func (c *Client) chain() http.RoundTripper {
	var rt http.RoundTripper = &headerTransport{base: c.base, client: c}
	for _, w := range c.wrappers {
		rt = w(rt)
	}
	return rt
}

type headerTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ua := t.client.UserAgent
	if ua == "" && len(t.client.Headers) == 0 {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	if ua != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", ua)
	}
	for k, v := range t.client.Headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
