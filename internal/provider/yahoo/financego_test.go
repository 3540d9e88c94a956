package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockserver/internal/provider"
	"stockserver/internal/respcache"
)

// fakeYahoo serves the two finance-go endpoints the adapter uses.
type fakeYahoo struct {
	names      map[string]string
	emptyChart map[string]bool

	quoteHits atomic.Int32
	chartHits atomic.Int32
}

func (f *fakeYahoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/v6/finance/quote":
		f.quoteHits.Add(1)
		var items []string
		for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
			if name, ok := f.names[s]; ok {
				items = append(items, fmt.Sprintf(`{"symbol":%q,"longName":%q,"currency":"USD","marketCap":1000}`, s, name))
			}
		}
		fmt.Fprintf(w, `{"quoteResponse":{"result":[%s],"error":null}}`, strings.Join(items, ","))
	case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
		f.chartHits.Add(1)
		sym := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if f.emptyChart[sym] {
			_, _ = io.WriteString(w, `{"chart":{"result":[],"error":null}}`)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":%q,"currency":"USD"},"timestamp":[%d,%d],`+
			`"indicators":{"quote":[{"open":[1,1],"high":[1,1],"low":[1,1],"close":[171.5,173.25],"volume":[10,20]}]}}],"error":null}}`,
			sym, day2.Unix(), day3.Unix())
	default:
		http.NotFound(w, r)
	}
}

func newFakeYahoo(t *testing.T) (*fakeYahoo, *httptest.Server) {
	t.Helper()
	f := &fakeYahoo{
		names:      map[string]string{"AAPL": "Apple Inc.", "BAD": "Bad Data Corp"},
		emptyChart: map[string]bool{"BAD": true},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestFinanceGo_Quote(t *testing.T) {
	t.Parallel()

	_, srv := newFakeYahoo(t)
	a := New(Config{BaseURL: srv.URL}, srv.Client())

	q, err := a.Quote(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "Apple Inc.", q.CompanyName)
	require.True(t, decimal.RequireFromString("173.25").Equal(q.CurrentPrice), "current=%s", q.CurrentPrice)
	require.True(t, decimal.RequireFromString("171.5").Equal(q.YesterdayPrice), "yesterday=%s", q.YesterdayPrice)
}

func TestFinanceGo_EmptyChartIsPerItemError(t *testing.T) {
	t.Parallel()

	// Arrange: BAD answers the chart request with an empty result list.
	_, srv := newFakeYahoo(t)
	a := New(Config{BaseURL: srv.URL}, srv.Client())

	// Act
	var (
		results []provider.Result
		err     error
	)
	require.NotPanics(t, func() {
		results, err = a.Quotes(t.Context(), []string{"AAPL", "BAD"})
	})

	// Assert: AAPL is still quoted, BAD carries its own error.
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0].Quote)
	require.NoError(t, results[0].Err)
	require.Nil(t, results[1].Quote)
	require.ErrorContains(t, results[1].Err, "malformed chart response for BAD")
}

func TestFinanceGo_RepeatQuotesHitResponseCache(t *testing.T) {
	t.Parallel()

	// Arrange: the adapter's client goes through the response cache.
	f, srv := newFakeYahoo(t)
	hc := &http.Client{Transport: respcache.NewTransport(srv.Client().Transport, respcache.NewMemory(100), time.Hour)}
	a := New(Config{BaseURL: srv.URL}, hc)
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	// Act: two lookups a couple of seconds apart.
	_, err := a.Quote(t.Context(), "AAPL")
	require.NoError(t, err)
	now = now.Add(2 * time.Second)
	_, err = a.Quote(t.Context(), "AAPL")
	require.NoError(t, err)

	// Assert: upstream saw each request once.
	require.EqualValues(t, 1, f.quoteHits.Load())
	require.EqualValues(t, 1, f.chartHits.Load())
}

func TestFinanceGo_SeparateAdaptersUseTheirOwnClient(t *testing.T) {
	t.Parallel()

	f1, srv1 := newFakeYahoo(t)
	f2, srv2 := newFakeYahoo(t)
	a1 := New(Config{BaseURL: srv1.URL}, srv1.Client())
	a2 := New(Config{BaseURL: srv2.URL}, srv2.Client())

	_, err := a1.MarketCap(t.Context(), "AAPL")
	require.NoError(t, err)
	_, err = a2.MarketCap(t.Context(), "AAPL")
	require.NoError(t, err)

	require.EqualValues(t, 1, f1.quoteHits.Load())
	require.EqualValues(t, 1, f2.quoteHits.Load())
}

func TestFinanceGo_HonoursContext(t *testing.T) {
	t.Parallel()

	// Arrange: an upstream that never answers.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	a := New(Config{BaseURL: srv.URL}, &http.Client{Timeout: 30 * time.Second})

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	// Act
	start := time.Now()
	_, err := a.MarketCap(ctx, "AAPL")

	// Assert: the lookup stops with the context, not the client timeout.
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}
