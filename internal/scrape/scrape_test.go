package scrape_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stockserver/internal/scrape"
)

const constituentsPage = `<html><body>
<table class="wikitable"><tr><th>Unrelated</th></tr><tr><td>NOPE</td></tr></table>
<table class="wikitable sortable" id="constituents">
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th></tr>
<tr><td><a href="/mmm">MMM</a>
</td><td>3M</td><td>Industrials</td></tr>
<tr><td> AOS </td><td>A. O. Smith</td><td>Industrials</td></tr>
<tr><td>ABT</td><td>Abbott Laboratories</td><td>Health Care</td></tr>
</table>
<table class="wikitable sortable"><tr><th>Date</th></tr><tr><td>2024-01-01</td></tr></table>
</body></html>`

const mostActivePage = `<html><body><table>
<tr class="header"><th>Symbol</th></tr>
<tr class="simpTblRow"><td aria-label="Symbol">NVDA</td><td aria-label="Name">NVIDIA</td></tr>
<tr class="simpTblRow"><td aria-label="Name">no symbol here</td></tr>
<tr class="simpTblRow"><td aria-label="Symbol">TSLA</td></tr>
<tr class="simpTblRow"><td aria-label="Symbol">AAPL</td></tr>
<tr class="simpTblRow"><td aria-label="Symbol">AMD</td></tr>
<tr class="simpTblRow"><td aria-label="Symbol">F</td></tr>
<tr class="simpTblRow"><td aria-label="Symbol">PLTR</td></tr>
</table></body></html>`

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newClient(t *testing.T, status int, body string, opts ...scrape.ClientOption) *scrape.Client {
	t.Helper()

	// Arrange: create a mock HTTP client serving a single page
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "text/html", req.Header.Get("Accept"))
			return htmlResponse(status, body), nil
		}).
		Times(1)

	opts = append([]scrape.ClientOption{
		scrape.WithHTTPClient(httpClient),
		scrape.WithHeader(http.Header{"Accept": {"text/html"}}),
	}, opts...)
	client, err := scrape.NewClient(opts...)
	require.NoError(t, err)
	return client
}

func TestTickers(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, constituentsPage)

	// Act
	tickers, err := client.Tickers(t.Context())

	// Assert: first sortable table only, header skipped, text trimmed
	require.NoError(t, err)
	require.Equal(t, []string{"MMM", "AOS", "ABT"}, tickers)
}

func TestTickers_RequestsConfiguredURL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "https://example.test/sp500", req.URL.String())
			return htmlResponse(http.StatusOK, constituentsPage), nil
		}).
		Times(1)

	client, err := scrape.NewClient(
		scrape.WithHTTPClient(httpClient),
		scrape.WithSP500URL("https://example.test/sp500"),
	)
	require.NoError(t, err)

	_, err = client.Tickers(t.Context())
	require.NoError(t, err)
}

func TestConstituents(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, constituentsPage)

	got, err := client.Constituents(t.Context())

	require.NoError(t, err)
	require.Equal(t, []scrape.Constituent{
		{Ticker: "MMM", Name: "3M"},
		{Ticker: "AOS", Name: "A. O. Smith"},
		{Ticker: "ABT", Name: "Abbott Laboratories"},
	}, got)
}

func TestTickers_StructureErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing table": `<html><body><p>moved</p></body></html>`,
		"header only":   `<table class="wikitable sortable"><tr><th>Symbol</th></tr></table>`,
		"row without cells": `<table class="wikitable sortable"><tr><th>Symbol</th></tr>
			<tr><td>MMM</td></tr><tr><th>oops</th></tr></table>`,
	}
	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client := newClient(t, http.StatusOK, page)

			tickers, err := client.Tickers(t.Context())

			require.Nil(t, tickers)
			require.ErrorIs(t, err, scrape.ErrStructure)
			var se *scrape.StructureError
			require.ErrorAs(t, err, &se)
			require.Equal(t, scrape.DefaultSP500URL, se.URL)
		})
	}
}

func TestConstituents_RowMissingName(t *testing.T) {
	t.Parallel()

	page := `<table class="wikitable sortable"><tr><th>Symbol</th></tr><tr><td>MMM</td></tr></table>`
	client := newClient(t, http.StatusOK, page)

	_, err := client.Constituents(t.Context())

	require.ErrorIs(t, err, scrape.ErrStructure)
}

func TestTickers_CustomTableSelector(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, constituentsPage, scrape.WithTableSelector("table#constituents"))

	tickers, err := client.Tickers(t.Context())

	require.NoError(t, err)
	require.Len(t, tickers, 3)
}

func TestTickers_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusServiceUnavailable, "")

	tickers, err := client.Tickers(t.Context())

	require.Error(t, err)
	require.NotErrorIs(t, err, scrape.ErrStructure)
	require.Nil(t, tickers)
}

func TestTickers_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("connection reset")).
		Times(1)

	client, err := scrape.NewClient(scrape.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, err = client.Tickers(t.Context())
	require.ErrorContains(t, err, "connection reset")
}

func TestTickers_ErrCreatingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	client, err := scrape.NewClient(
		scrape.WithHTTPClient(httpClient),
		scrape.WithSP500URL(string([]rune{0x7f})),
	)
	require.NoError(t, err)

	_, err = client.Tickers(t.Context())
	require.Error(t, err)
}

func TestMostActive(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, mostActivePage)

	tickers, err := client.MostActive(t.Context(), 5)

	// Assert: the row without a symbol cell is skipped
	require.NoError(t, err)
	require.Equal(t, []string{"NVDA", "TSLA", "AAPL", "AMD", "F"}, tickers)
}

func TestMostActive_FewerRowsThanLimit(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, mostActivePage)

	tickers, err := client.MostActive(t.Context(), 10)

	require.NoError(t, err)
	require.Len(t, tickers, 6)
}

func TestMostActive_DefaultLimit(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, mostActivePage)

	tickers, err := client.MostActive(t.Context(), 0)

	require.NoError(t, err)
	require.Len(t, tickers, scrape.DefaultMostActiveLimit)
}

func TestMostActive_CustomSelectors(t *testing.T) {
	t.Parallel()

	page := `<table><tr data-row="1"><td data-col="sym">XOM</td></tr><tr data-row="2"><td data-col="sym">CVX</td></tr></table>`
	client := newClient(t, http.StatusOK, page, scrape.WithMostActiveSelectors("tr[data-row]", `td[data-col="sym"]`))

	tickers, err := client.MostActive(t.Context(), 5)

	require.NoError(t, err)
	require.Equal(t, []string{"XOM", "CVX"}, tickers)
}

func TestMostActive_NoRows(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.StatusOK, `<html><body><div>consent required</div></body></html>`)

	tickers, err := client.MostActive(t.Context(), 5)

	require.ErrorIs(t, err, scrape.ErrStructure)
	require.Nil(t, tickers)
}
