package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"stockserver/internal/app"
	"stockserver/internal/config"
	"stockserver/internal/logging"
	"stockserver/internal/ranking"
)

type dump struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Source       string              `json:"source"`
	Count        int                 `json:"count"`
	WithCap      int                 `json:"with_market_cap"`
	Constituents []ranking.Candidate `json:"constituents"`
}

func main() {
	_ = godotenv.Load()

	var (
		outPath    string
		cfgPath    string
		workers    int
		timeoutSec int
	)
	flag.StringVar(&outPath, "out", "sp500_market_caps.json", "output JSON file path")
	flag.StringVar(&cfgPath, "config", "", "path to config file (optional)")
	flag.IntVar(&workers, "workers", 0, "parallel market cap lookups (0 = config)")
	flag.IntVar(&timeoutSec, "timeout", 300, "overall timeout seconds")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if workers > 0 {
		cfg.Ranking.Workers = workers
	}
	log := logging.New(cfg.Logging.Level, "console")

	if err := run(cfg, log, outPath, time.Duration(timeoutSec)*time.Second); err != nil {
		log.Fatal().Err(err).Msg("dump failed")
	}
}

func run(cfg config.Config, log *logging.Logger, outPath string, timeout time.Duration) error {
	a, err := app.Build(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	cands, err := a.Service.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("fetching constituents: %w", err)
	}

	d := dump{
		GeneratedAt:  time.Now().UTC(),
		Source:       cfg.Scrape.SP500URL,
		Count:        len(cands),
		Constituents: cands,
	}
	for _, c := range cands {
		if c.MarketCap != nil {
			d.WithCap++
		}
	}

	if err := writeJSON(outPath, d); err != nil {
		return err
	}
	log.Info().
		Int("constituents", d.Count).
		Int("with_market_cap", d.WithCap).
		Dur("took", time.Since(start)).
		Str("out", outPath).
		Msg("done")
	return nil
}

// writeJSON writes v to a temp file next to path and renames it into place.
func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create out: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
