package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/piquette/finance-go"
	"github.com/shopspring/decimal"

	"stockserver/internal/provider"
)

type Config struct {
	Name string // display name, default: Yahoo
	// HistoryDays is the trailing window requested for daily closes. It must
	// cover at least two trading sessions, including long weekends.
	HistoryDays int
	// BaseURL overrides the Yahoo Finance API host.
	BaseURL string
}

// MissingFieldError reports a metadata field absent from the provider
// response.
type MissingFieldError struct {
	Ticker string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing metadata field %q", e.Ticker, e.Field)
}

// source is the subset of finance-go the adapter depends on.
type source interface {
	equity(ctx context.Context, symbol string) (*finance.Equity, error)
	equities(ctx context.Context, symbols []string) ([]*finance.Equity, error)
	dailyBars(ctx context.Context, symbol string, start, end time.Time) ([]finance.ChartBar, error)
}

type Adapter struct {
	cfg Config
	src source
	now func() time.Time
}

// New returns an adapter backed by finance-go. hc carries every request the
// adapter makes, so its transport (client identifier, response cache)
// applies to all provider traffic. Adapters do not share finance-go state.
func New(cfg Config, hc *http.Client) *Adapter {
	return newAdapter(cfg, newFinanceGo(cfg.BaseURL, hc))
}

func newAdapter(cfg Config, src source) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.HistoryDays < 2 {
		cfg.HistoryDays = 10
	}
	return &Adapter{cfg: cfg, src: src, now: time.Now}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Quote(ctx context.Context, ticker string) (provider.Quote, error) {
	if err := ctx.Err(); err != nil {
		return provider.Quote{}, err
	}
	eq, err := a.src.equity(ctx, ticker)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("fetching metadata for %s: %w", ticker, err)
	}
	if eq == nil {
		return provider.Quote{}, fmt.Errorf("%s: %w", ticker, provider.ErrNotFound)
	}
	return a.build(ctx, ticker, eq)
}

func (a *Adapter) Quotes(ctx context.Context, tickers []string) ([]provider.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eqs, err := a.src.equities(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetching batch metadata: %w", err)
	}
	bySymbol := make(map[string]*finance.Equity, len(eqs))
	for _, eq := range eqs {
		if eq != nil {
			bySymbol[eq.Symbol] = eq
		}
	}

	out := make([]provider.Result, 0, len(tickers))
	for _, t := range tickers {
		eq, ok := bySymbol[t]
		if !ok {
			out = append(out, provider.Result{Ticker: t, Err: fmt.Errorf("%s: %w", t, provider.ErrNotFound)})
			continue
		}
		q, err := a.build(ctx, t, eq)
		if err != nil {
			out = append(out, provider.Result{Ticker: t, Err: err})
			continue
		}
		out = append(out, provider.Result{Ticker: t, Quote: &q})
	}
	return out, nil
}

func (a *Adapter) MarketCap(ctx context.Context, ticker string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	eq, err := a.src.equity(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("fetching metadata for %s: %w", ticker, err)
	}
	if eq == nil {
		return 0, fmt.Errorf("%s: %w", ticker, provider.ErrNotFound)
	}
	if eq.MarketCap <= 0 {
		return 0, fmt.Errorf("%s: %w", ticker, provider.ErrNoMarketCap)
	}
	return eq.MarketCap, nil
}

func (a *Adapter) build(ctx context.Context, ticker string, eq *finance.Equity) (provider.Quote, error) {
	if eq.LongName == "" {
		return provider.Quote{}, &MissingFieldError{Ticker: ticker, Field: "longName"}
	}
	if eq.CurrencyID == "" {
		return provider.Quote{}, &MissingFieldError{Ticker: ticker, Field: "currency"}
	}
	if err := ctx.Err(); err != nil {
		return provider.Quote{}, err
	}

	// The window ends at the next UTC midnight so repeated lookups within a
	// day request the same URL and can be served from the response cache.
	end := a.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	start := end.AddDate(0, 0, -a.cfg.HistoryDays)
	bars, err := a.src.dailyBars(ctx, ticker, start, end)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("fetching history for %s: %w", ticker, err)
	}
	prev, cur, err := lastTwoCloses(bars)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("%s: %w", ticker, err)
	}

	return provider.Quote{
		Ticker:         ticker,
		CompanyName:    eq.LongName,
		Currency:       eq.CurrencyID,
		CurrentPrice:   cur.price,
		YesterdayPrice: prev.price,
		CurrentAt:      cur.at,
		YesterdayAt:    prev.at,
	}, nil
}

type closePoint struct {
	price decimal.Decimal
	at    time.Time
}

// lastTwoCloses returns the second-most-recent and most recent non-null
// daily closes. Bars with a zero close are sessions Yahoo reported without
// data and are skipped.
func lastTwoCloses(bars []finance.ChartBar) (prev, cur closePoint, err error) {
	points := make([]closePoint, 0, len(bars))
	for _, b := range bars {
		if b.Close.IsZero() || b.Timestamp <= 0 {
			continue
		}
		points = append(points, closePoint{price: b.Close, at: time.Unix(int64(b.Timestamp), 0).UTC()})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	if len(points) < 2 {
		return prev, cur, fmt.Errorf("insufficient price history: need 2 daily closes, got %d", len(points))
	}
	prev, cur = points[len(points)-2], points[len(points)-1]
	if !prev.at.Before(cur.at) {
		return prev, cur, fmt.Errorf("inconsistent price history: close at %s is not before %s", prev.at.Format(time.RFC3339), cur.at.Format(time.RFC3339))
	}
	return prev, cur, nil
}
