package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockserver/internal/app"
	"stockserver/internal/config"
	"stockserver/internal/logging"
)

type batchOutcome struct {
	Ticker string `json:"ticker"`
	Quote  any    `json:"quote,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	_ = godotenv.Load()

	var (
		op         string
		tickersCSV string
		configPath string
		timeout    int
	)
	flag.StringVar(&op, "op", "quote", "operation: quote | quotes | tickers | top | candidates | most-active")
	flag.StringVar(&tickersCSV, "tickers", getenv("TICKERS", "AAPL"), "comma-separated tickers for quote/quotes")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config file (optional)")
	flag.IntVar(&timeout, "timeout", 120, "overall timeout seconds")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("config: %v", err)
	}
	log := logging.New(cfg.Logging.Level, "console")

	a, err := app.Build(cfg, log)
	if err != nil {
		fatal("startup: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	tickers := splitCSV(tickersCSV)
	var out any
	switch op {
	case "quote":
		ticker := ""
		if len(tickers) > 0 {
			ticker = tickers[0]
		}
		out, err = a.Service.Quote(ctx, ticker)
	case "quotes":
		res, qerr := a.Service.Quotes(ctx, tickers)
		err = qerr
		items := make([]batchOutcome, 0, len(res))
		for _, r := range res {
			o := batchOutcome{Ticker: r.Ticker}
			if r.Err != nil {
				o.Error = r.Err.Error()
			} else {
				o.Quote = r.Quote
			}
			items = append(items, o)
		}
		out = items
	case "tickers":
		out, err = a.Service.Tickers(ctx)
	case "top":
		out, err = a.Service.TopCompanies(ctx)
	case "candidates":
		out, err = a.Service.Candidates(ctx)
	case "most-active":
		out, err = a.Service.MostActive(ctx)
	default:
		err = fmt.Errorf("unknown op %q", op)
	}
	if err != nil {
		_ = a.Close()
		fatal("%s: %v", op, err)
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
