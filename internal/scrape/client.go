// Package scrape reads index constituents and most-active tickers from
// public web pages.
package scrape

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultSP500URL      = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	DefaultMostActiveURL = "https://finance.yahoo.com/most-active"

	DefaultTableSelector  = "table.wikitable.sortable"
	DefaultRowSelector    = "tr.simpTblRow"
	DefaultSymbolSelector = `td[aria-label="Symbol"]`
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=scrape_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client scrapes the constituents and most-active pages.
type Client struct {
	httpClient HTTPClient
	header     http.Header

	sp500URL      string
	mostActiveURL string

	// tableSelector picks the constituents table; the first match is used.
	tableSelector  string
	rowSelector    string
	symbolSelector string
}

// ClientOption is a configuration option for the scraper.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for page fetches.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

func WithSP500URL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.sp500URL = u
		}
	}
}

func WithMostActiveURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.mostActiveURL = u
		}
	}
}

func WithTableSelector(sel string) ClientOption {
	return func(c *Client) {
		if sel != "" {
			c.tableSelector = sel
		}
	}
}

// WithMostActiveSelectors sets the row marker and the symbol cell selector
// used on the most-active page. Empty values keep the defaults.
func WithMostActiveSelectors(row, symbol string) ClientOption {
	return func(c *Client) {
		if row != "" {
			c.rowSelector = row
		}
		if symbol != "" {
			c.symbolSelector = symbol
		}
	}
}

// NewClient creates a new scraper.
func NewClient(options ...ClientOption) (*Client, error) {
	var client = &Client{
		httpClient:     http.DefaultClient,
		header:         http.Header{},
		sp500URL:       DefaultSP500URL,
		mostActiveURL:  DefaultMostActiveURL,
		tableSelector:  DefaultTableSelector,
		rowSelector:    DefaultRowSelector,
		symbolSelector: DefaultSymbolSelector,
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// document fetches url and parses the body as HTML.
func (c *Client) document(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("page not found: %s", url)

	case http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("request refused with status %d", res.StatusCode)

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}
