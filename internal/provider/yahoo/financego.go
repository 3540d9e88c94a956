package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
)

// financeGo calls the Yahoo Finance endpoints through piquette/finance-go.
// Each value carries its own backend; the package-level finance-go backend
// is never touched.
type financeGo struct {
	backend finance.Backend
}

func newFinanceGo(baseURL string, hc *http.Client) financeGo {
	if baseURL == "" {
		baseURL = finance.YFinURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 80 * time.Second}
	}
	return financeGo{backend: &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        baseURL,
		HTTPClient: hc,
	}}
}

func (f financeGo) equity(ctx context.Context, symbol string) (*finance.Equity, error) {
	eqs, err := f.equities(ctx, []string{symbol})
	if err != nil || len(eqs) == 0 {
		return nil, err
	}
	return eqs[0], nil
}

// equities performs a single quote request for all symbols.
func (f financeGo) equities(ctx context.Context, symbols []string) (out []*finance.Equity, err error) {
	// finance-go indexes into response arrays without checking their length.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("malformed quote response: %v", r)
		}
	}()

	iter := equity.Client{B: f.backend}.ListP(&equity.Params{
		Params:  finance.Params{Context: &ctx},
		Symbols: symbols,
	})
	out = make([]*finance.Equity, 0, len(symbols))
	for iter.Next() {
		out = append(out, iter.Equity())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f financeGo) dailyBars(ctx context.Context, symbol string, start, end time.Time) (bars []finance.ChartBar, err error) {
	defer func() {
		if r := recover(); r != nil {
			bars, err = nil, fmt.Errorf("malformed chart response for %s: %v", symbol, r)
		}
	}()

	iter := chart.Client{B: f.backend}.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})
	for iter.Next() {
		bars = append(bars, *iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}
