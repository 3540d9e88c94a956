package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound reports that the provider returned no data for a ticker.
	ErrNotFound = errors.New("no data returned for ticker")
	// ErrNoMarketCap reports that a ticker has no market capitalization.
	ErrNoMarketCap = errors.New("market cap not available")
)

// Quote is the normalized shape returned by quote providers.
// CurrentPrice is the most recent daily close and YesterdayPrice the one
// before it; YesterdayAt is always strictly before CurrentAt.
type Quote struct {
	Ticker         string
	CompanyName    string
	Currency       string
	CurrentPrice   decimal.Decimal
	YesterdayPrice decimal.Decimal
	CurrentAt      time.Time
	YesterdayAt    time.Time
}

// Result is the outcome of one ticker in a batch lookup. Exactly one of
// Quote or Err is set.
type Result struct {
	Ticker string
	Quote  *Quote
	Err    error
}

// Provider fetches quotes and descriptive metadata for tickers.
//
//go:generate mockgen -package=stocks_test -destination=../stocks/mock_provider_test.go -source=provider.go Provider
type Provider interface {
	Name() string
	// Quote looks up a single ticker.
	Quote(ctx context.Context, ticker string) (Quote, error)
	// Quotes looks up many tickers with one batched metadata request and
	// returns one Result per input ticker, in input order. An error is
	// returned only when the batched request itself fails.
	Quotes(ctx context.Context, tickers []string) ([]Result, error)
	// MarketCap returns the market capitalization for ticker.
	MarketCap(ctx context.Context, ticker string) (int64, error)
}
