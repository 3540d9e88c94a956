package respcache

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// HeaderFromCache is set on responses served from the cache.
const HeaderFromCache = "X-From-Cache"

// Transport serves GET requests from Store while the stored response is
// younger than TTL. Only 200 responses are stored. Concurrent misses for
// the same key share one upstream request.
type Transport struct {
	Base  http.RoundTripper
	Store Store
	TTL   time.Duration

	now   func() time.Time
	group singleflight.Group
}

func NewTransport(base http.RoundTripper, store Store, ttl time.Duration) *Transport {
	return &Transport{Base: base, Store: store, TTL: ttl}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *Transport) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || t.Store == nil || t.TTL <= 0 {
		return t.base().RoundTrip(req)
	}

	key := Key(req)
	if e, ok, err := t.Store.Get(key); err == nil && ok && !e.expired(t.clock()) {
		res := e.response(req)
		res.Header.Set(HeaderFromCache, "1")
		return res, nil
	}

	v, err, _ := t.group.Do(key, func() (any, error) {
		res, err := t.base().RoundTrip(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		now := t.clock()
		e := Entry{
			StatusCode: res.StatusCode,
			Header:     res.Header.Clone(),
			Body:       body,
			StoredAt:   now,
			ExpiresAt:  now.Add(t.TTL),
		}
		if res.StatusCode == http.StatusOK {
			// A failed write only costs a future miss.
			_ = t.Store.Put(key, e)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Entry).response(req), nil
}
