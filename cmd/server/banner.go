package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ternarybob/banner"

	"stockserver/internal/config"
	"stockserver/internal/logging"
)

func printBanner(cfg config.Config, log *logging.Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	cache := cfg.Cache.Backend
	if cfg.Cache.Backend == config.CacheBolt {
		cache += " (" + cfg.Cache.Path + ")"
	}
	workers := "auto"
	if cfg.Ranking.Workers > 0 {
		workers = strconv.Itoa(cfg.Ranking.Workers)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  STOCKSERVER%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s  Quotes, S&P 500 constituents and most-active tickers%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvPad := 16
	for _, kv := range [][2]string{
		{"Listen", ":" + cfg.Server.Port},
		{"Cache", cache},
		{"Cache TTL", fmt.Sprintf("%ds", cfg.Cache.TTLSeconds)},
		{"Ranking", fmt.Sprintf("top %d, %s workers", cfg.Ranking.TopN, workers)},
		{"Constituents", cfg.Scrape.SP500URL},
		{"Most active", cfg.Scrape.MostActiveURL},
	} {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	log.Info().
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Backend).
		Msg("application started")
}

func printShutdownBanner(log *logging.Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 32) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  SHUTTING DOWN%s\n", banner.ColorBold+banner.ColorWhite, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	log.Info().Msg("application shutting down")
}
