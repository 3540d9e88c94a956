// Package respcache is a bounded, time-expiring HTTP response cache used by
// the quotes provider client. Responses are keyed by request signature
// (method and URL) and kept in a pluggable Store.
package respcache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Entry is a stored response.
type Entry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

func (e Entry) expired(now time.Time) bool { return !now.Before(e.ExpiresAt) }

func (e Entry) response(req *http.Request) *http.Response {
	h := e.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Store persists cache entries. Implementations must be safe for
// concurrent use and keep at most their configured number of entries.
type Store interface {
	Get(key string) (Entry, bool, error)
	Put(key string, e Entry) error
	Len() int
	Close() error
}

// Key returns the cache key for req.
func Key(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

type keyed struct {
	key   string
	entry Entry
}

// evictionOrder returns the keys to delete so that at most max entries
// remain: expired entries first, then the oldest stored.
func evictionOrder(items []keyed, max int, now time.Time) []string {
	over := len(items) - max
	if max <= 0 || over <= 0 {
		return nil
	}
	sort.SliceStable(items, func(i, j int) bool {
		ei, ej := items[i].entry.expired(now), items[j].entry.expired(now)
		if ei != ej {
			return ei
		}
		return items[i].entry.StoredAt.Before(items[j].entry.StoredAt)
	})
	out := make([]string, 0, over)
	for _, it := range items[:over] {
		out = append(out, it.key)
	}
	return out
}
