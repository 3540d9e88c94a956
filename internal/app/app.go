// Package app wires configuration into the running service graph.
package app

import (
	"fmt"
	"net/http"

	"stockserver/internal/api"
	"stockserver/internal/config"
	"stockserver/internal/httpx"
	"stockserver/internal/logging"
	"stockserver/internal/provider/yahoo"
	"stockserver/internal/respcache"
	"stockserver/internal/scrape"
	"stockserver/internal/stocks"
)

type App struct {
	Config  config.Config
	Log     *logging.Logger
	Service *stocks.Service
	API     *api.Server

	cache respcache.Store
}

// Build creates the provider client (with its response cache), the page
// scraper, the stocks service and the HTTP server. Close releases the cache.
func Build(cfg config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := openCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	yc := httpx.New(cfg.YahooTimeout(), cfg.Yahoo.UserAgent)
	if store != nil {
		yc = yc.Wrap(func(rt http.RoundTripper) http.RoundTripper {
			return respcache.NewTransport(rt, store, cfg.CacheTTL())
		})
	}
	quotes := yahoo.New(yahoo.Config{HistoryDays: cfg.Yahoo.HistoryDays, BaseURL: cfg.Yahoo.BaseURL}, yc.HTTP)

	sc := httpx.New(cfg.ScrapeTimeout(), cfg.Scrape.UserAgent)
	sc.Headers = map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
	}
	pages, err := scrape.NewClient(
		scrape.WithHTTPClient(sc.HTTP),
		scrape.WithSP500URL(cfg.Scrape.SP500URL),
		scrape.WithMostActiveURL(cfg.Scrape.MostActiveURL),
		scrape.WithTableSelector(cfg.Scrape.TableSelector),
		scrape.WithMostActiveSelectors(cfg.Scrape.RowSelector, cfg.Scrape.SymbolSelector),
	)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("scraper: %w", err)
	}

	svc := stocks.New(stocks.Config{
		TopN:            cfg.Ranking.TopN,
		Workers:         cfg.Ranking.Workers,
		MostActiveLimit: cfg.Scrape.MostActiveLimit,
	}, quotes, pages, log)

	log.Info().
		Str("provider", quotes.Name()).
		Str("cache", cfg.Cache.Backend).
		Int("cache_ttl_sec", cfg.Cache.TTLSeconds).
		Int("cache_max_items", cfg.Cache.MaxItems).
		Msg("service ready")

	return &App{
		Config:  cfg,
		Log:     log,
		Service: svc,
		API:     api.NewServer(svc, log, api.Options{MaxBodyBytes: cfg.Server.MaxBodyBytes}),
		cache:   store,
	}, nil
}

func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// openCache returns nil when caching is off.
func openCache(c config.Cache) (respcache.Store, error) {
	if c.TTLSeconds <= 0 {
		return nil, nil
	}
	switch c.Backend {
	case config.CacheOff:
		return nil, nil
	case config.CacheBolt:
		s, err := respcache.OpenBolt(c.Path, c.MaxItems)
		if err != nil {
			return nil, fmt.Errorf("response cache: %w", err)
		}
		return s, nil
	case config.CacheMemory, "":
		return respcache.NewMemory(c.MaxItems), nil
	default:
		return nil, fmt.Errorf("response cache: unknown backend %q", c.Backend)
	}
}
