// Package stocks implements the quote, constituent and most-active
// operations on top of a quotes provider and the page scraper.
package stocks

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"stockserver/internal/logging"
	"stockserver/internal/provider"
	"stockserver/internal/ranking"
	"stockserver/internal/scrape"
)

const (
	DefaultTopN            = 50
	DefaultMostActiveLimit = scrape.DefaultMostActiveLimit
)

// Pages is the scraped side of the service.
type Pages interface {
	Tickers(ctx context.Context) ([]string, error)
	Constituents(ctx context.Context) ([]scrape.Constituent, error)
	MostActive(ctx context.Context, limit int) ([]string, error)
}

type Config struct {
	TopN            int // ranked list length, default 50
	Workers         int // market cap fetch concurrency, default DefaultWorkers()
	MostActiveLimit int // default 5
}

// DefaultWorkers is min(32, NumCPU+4).
func DefaultWorkers() int {
	return min(32, runtime.NumCPU()+4)
}

type Service struct {
	cfg      Config
	provider provider.Provider
	pages    Pages
	log      *logging.Logger
}

func New(cfg Config, p provider.Provider, pages Pages, log *logging.Logger) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.MostActiveLimit <= 0 {
		cfg.MostActiveLimit = DefaultMostActiveLimit
	}
	if log == nil {
		log = logging.NewSilent()
	}
	return &Service{cfg: cfg, provider: p, pages: pages, log: log}
}

// Quote looks up one ticker.
func (s *Service) Quote(ctx context.Context, ticker string) (provider.Quote, error) {
	if strings.TrimSpace(ticker) == "" {
		return provider.Quote{}, &ValidationError{Msg: "Ticker name is required"}
	}
	q, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		return provider.Quote{}, &UpstreamError{Op: "quote", Err: err}
	}
	return q, nil
}

// Quotes looks up every ticker with one batched metadata call. Per-ticker
// failures are reported in the matching Result.
func (s *Service) Quotes(ctx context.Context, tickers []string) ([]provider.Result, error) {
	if len(tickers) == 0 {
		return nil, &ValidationError{Msg: "List of tickers is required"}
	}
	s.log.Info().Strs("tickers", tickers).Msg("batch quote lookup")

	res, err := s.provider.Quotes(ctx, tickers)
	if err != nil {
		return nil, &UpstreamError{Op: "batch quote", Err: err}
	}
	return res, nil
}

// Tickers lists index constituents in page order.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	tickers, err := s.pages.Tickers(ctx)
	if err != nil {
		return nil, pageErr("constituents", err)
	}
	return tickers, nil
}

// Candidates returns every distinct constituent with its market cap, in
// page order. Failed lookups leave MarketCap nil.
func (s *Service) Candidates(ctx context.Context) ([]ranking.Candidate, error) {
	rows, err := s.pages.Constituents(ctx)
	if err != nil {
		return nil, pageErr("constituents", err)
	}
	companies := make([]ranking.Company, 0, len(rows))
	for _, r := range rows {
		companies = append(companies, ranking.Company{Ticker: r.Ticker, Name: r.Name})
	}
	return s.MarketCaps(ctx, ranking.Dedupe(companies)), nil
}

// TopCompanies returns the largest constituents by market cap.
func (s *Service) TopCompanies(ctx context.Context) ([]ranking.Company, error) {
	cands, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	return ranking.Top(cands, s.cfg.TopN), nil
}

// MarketCaps fetches market caps for companies with at most cfg.Workers
// lookups in flight. Result i belongs to companies[i]. A failed lookup is
// logged and does not affect the others.
func (s *Service) MarketCaps(ctx context.Context, companies []ranking.Company) []ranking.Candidate {
	out := make([]ranking.Candidate, len(companies))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, c := range companies {
		out[i].Company = c
		g.Go(func() error {
			mc, err := s.provider.MarketCap(ctx, c.Ticker)
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", c.Ticker).Msg("market cap lookup failed")
				return nil
			}
			out[i].MarketCap = &mc
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// MostActive lists the most traded tickers of the day.
func (s *Service) MostActive(ctx context.Context) ([]string, error) {
	tickers, err := s.pages.MostActive(ctx, s.cfg.MostActiveLimit)
	if err != nil {
		return nil, pageErr("most active", err)
	}
	return tickers, nil
}
