package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	CacheMemory = "memory"
	CacheBolt   = "bolt"
	CacheOff    = "off"
)

type Server struct {
	Port               string `json:"port" toml:"port" yaml:"port"`
	RequestTimeoutSec  int    `json:"request_timeout_sec" toml:"request_timeout_sec" yaml:"request_timeout_sec"`
	MaxBodyBytes       int64  `json:"max_body_bytes" toml:"max_body_bytes" yaml:"max_body_bytes"`
	ShutdownTimeoutSec int    `json:"shutdown_timeout_sec" toml:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
}

type Yahoo struct {
	UserAgent   string `json:"user_agent" toml:"user_agent" yaml:"user_agent"`
	HistoryDays int    `json:"history_days" toml:"history_days" yaml:"history_days"`
	// BaseURL overrides the Yahoo Finance API host. Empty means the public one.
	BaseURL string `json:"base_url" toml:"base_url" yaml:"base_url"`
	// TimeoutSec falls back to server.request_timeout_sec when zero.
	TimeoutSec int `json:"timeout_sec" toml:"timeout_sec" yaml:"timeout_sec"`
}

type Cache struct {
	Backend    string `json:"backend" toml:"backend" yaml:"backend"` // memory | bolt | off
	Path       string `json:"path" toml:"path" yaml:"path"`          // bolt only
	TTLSeconds int    `json:"ttl_sec" toml:"ttl_sec" yaml:"ttl_sec"`
	MaxItems   int    `json:"max_items" toml:"max_items" yaml:"max_items"`
}

type Scrape struct {
	UserAgent       string `json:"user_agent" toml:"user_agent" yaml:"user_agent"`
	SP500URL        string `json:"sp500_url" toml:"sp500_url" yaml:"sp500_url"`
	MostActiveURL   string `json:"most_active_url" toml:"most_active_url" yaml:"most_active_url"`
	TableSelector   string `json:"table_selector" toml:"table_selector" yaml:"table_selector"`
	RowSelector     string `json:"row_selector" toml:"row_selector" yaml:"row_selector"`
	SymbolSelector  string `json:"symbol_selector" toml:"symbol_selector" yaml:"symbol_selector"`
	MostActiveLimit int    `json:"most_active_limit" toml:"most_active_limit" yaml:"most_active_limit"`
	TimeoutSec      int    `json:"timeout_sec" toml:"timeout_sec" yaml:"timeout_sec"`
}

type Ranking struct {
	TopN    int `json:"top_n" toml:"top_n" yaml:"top_n"`
	Workers int `json:"workers" toml:"workers" yaml:"workers"` // 0 = min(32, NumCPU+4)
}

type Logging struct {
	Level  string `json:"level" toml:"level" yaml:"level"`
	Format string `json:"format" toml:"format" yaml:"format"` // json | console
}

type Config struct {
	Server  Server  `json:"server" toml:"server" yaml:"server"`
	Yahoo   Yahoo   `json:"yahoo" toml:"yahoo" yaml:"yahoo"`
	Cache   Cache   `json:"cache" toml:"cache" yaml:"cache"`
	Scrape  Scrape  `json:"scrape" toml:"scrape" yaml:"scrape"`
	Ranking Ranking `json:"ranking" toml:"ranking" yaml:"ranking"`
	Logging Logging `json:"logging" toml:"logging" yaml:"logging"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:               "8080",
			RequestTimeoutSec:  10,
			MaxBodyBytes:       1 << 20,
			ShutdownTimeoutSec: 5,
		},
		Yahoo: Yahoo{
			UserAgent:   "stockserver/1.0",
			HistoryDays: 10,
		},
		Cache: Cache{
			Backend:    CacheMemory,
			Path:       "data/yfinance.cache.db",
			TTLSeconds: 300,
			MaxItems:   1000,
		},
		Scrape: Scrape{
			// Yahoo answers non-browser agents with a consent page.
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			SP500URL:        "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
			MostActiveURL:   "https://finance.yahoo.com/most-active",
			TableSelector:   "table.wikitable.sortable",
			RowSelector:     "tr.simpTblRow",
			SymbolSelector:  `td[aria-label="Symbol"]`,
			MostActiveLimit: 5,
		},
		Ranking: Ranking{TopN: 50},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load reads config from path, picking the decoder by extension (.json,
// .toml, .yaml, .yml). If path is empty, config.json in the working
// directory is used when present. A missing file yields defaults.
// Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		return json.Unmarshal(b, cfg)
	case ".toml":
		return toml.Unmarshal(b, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheBolt, CacheOff:
	default:
		return fmt.Errorf("cache.backend must be one of memory, bolt, off; got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBolt && c.Cache.Path == "" {
		return errors.New("cache.path is required for the bolt backend")
	}
	if c.Yahoo.HistoryDays < 2 {
		return fmt.Errorf("yahoo.history_days must be at least 2; got %d", c.Yahoo.HistoryDays)
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func (c Config) YahooTimeout() time.Duration {
	if c.Yahoo.TimeoutSec > 0 {
		return time.Duration(c.Yahoo.TimeoutSec) * time.Second
	}
	return c.RequestTimeout()
}

func (c Config) ScrapeTimeout() time.Duration {
	if c.Scrape.TimeoutSec > 0 {
		return time.Duration(c.Scrape.TimeoutSec) * time.Second
	}
	return c.RequestTimeout()
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}

	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Yahoo.UserAgent = v
	}
	if x, ok := envInt("YAHOO_HISTORY_DAYS"); ok && x > 0 {
		cfg.Yahoo.HistoryDays = x
	}
	if v := os.Getenv("YAHOO_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}

	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if x, ok := envInt("CACHE_TTL_SEC"); ok && x >= 0 {
		cfg.Cache.TTLSeconds = x
	}
	if x, ok := envInt("CACHE_MAX_ITEMS"); ok && x > 0 {
		cfg.Cache.MaxItems = x
	}

	if v := os.Getenv("SCRAPE_USER_AGENT"); v != "" {
		cfg.Scrape.UserAgent = v
	}
	if v := os.Getenv("SP500_URL"); v != "" {
		cfg.Scrape.SP500URL = v
	}
	if v := os.Getenv("MOST_ACTIVE_URL"); v != "" {
		cfg.Scrape.MostActiveURL = v
	}
	if x, ok := envInt("MOST_ACTIVE_LIMIT"); ok && x > 0 {
		cfg.Scrape.MostActiveLimit = x
	}

	if x, ok := envInt("RANKING_TOP_N"); ok && x > 0 {
		cfg.Ranking.TopN = x
	}
	if x, ok := envInt("RANKING_WORKERS"); ok && x > 0 {
		cfg.Ranking.Workers = x
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// envInt reports the integer value of key; unset or malformed values are
// ignored.
func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return x, true
}
