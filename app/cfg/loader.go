package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./ainews.db" description:"SQLite database file path"`

	// Application configuration
	SourcesFile         string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing RSS news sources"`
	Port                string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount         int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background workers for digest delivery"`
	LookbackHours       int    `long:"lookback-hours" env:"LOOKBACK_HOURS" default:"24" description:"Article collection window in hours"`
	MaxArticles         int    `long:"max-articles" env:"MAX_ARTICLES_PER_DELIVERY" default:"5" description:"Maximum articles per digest delivery"`
	DefaultDeliveryHour int    `long:"default-delivery-hour" env:"DEFAULT_DELIVERY_HOUR" default:"8" description:"Fallback delivery hour for subscribers without settings"`
	Timezone            string `long:"timezone" env:"TZ" default:"Asia/Tokyo" description:"Timezone for delivery scheduling (e.g., Asia/Tokyo, UTC)"`

	// External endpoints
	HackerNewsURL    string `long:"hackernews-url" env:"HACKERNEWS_URL" default:"https://hacker-news.firebaseio.com/v0" description:"Hacker News API base URL"`
	HatenaCountURL   string `long:"hatena-count-url" env:"HATENA_COUNT_URL" default:"https://bookmark.hatenaapis.com" description:"Hatena bookmark count API base URL"`
	HNSearchURL      string `long:"hn-search-url" env:"HN_SEARCH_URL" default:"https://hn.algolia.com" description:"Algolia Hacker News search API base URL"`
	LineAPIURL       string `long:"line-api-url" env:"LINE_API_URL" default:"https://api.line.me" description:"LINE Messaging API base URL"`
	LineChannelToken string `long:"line-channel-token" env:"LINE_CHANNEL_ACCESS_TOKEN" description:"LINE channel access token (delivery disabled when empty)"`

	// HTTP behavior
	CollectTimeout int `long:"collect-timeout" env:"COLLECT_TIMEOUT" default:"30" description:"Timeout in seconds for feed and story fetches"`
	SignalTimeout  int `long:"signal-timeout" env:"SIGNAL_TIMEOUT" default:"15" description:"Timeout in seconds for popularity signal lookups"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"AINews Digest/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		SourcesFile:         raw.SourcesFile,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		LookbackHours:       raw.LookbackHours,
		MaxArticles:         raw.MaxArticles,
		DefaultDeliveryHour: raw.DefaultDeliveryHour,
		Timezone:            raw.Timezone,
		HackerNewsURL:       raw.HackerNewsURL,
		HatenaCountURL:      raw.HatenaCountURL,
		HNSearchURL:         raw.HNSearchURL,
		LineAPIURL:          raw.LineAPIURL,
		LineChannelToken:    raw.LineChannelToken,
		CollectTimeout:      raw.CollectTimeout,
		SignalTimeout:       raw.SignalTimeout,
		UserAgent:           raw.UserAgent,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.DefaultDeliveryHour < 0 || cfg.DefaultDeliveryHour > 23 {
		return fmt.Errorf("default delivery hour must be within 0-23, got %d", cfg.DefaultDeliveryHour)
	}
	if cfg.LookbackHours <= 0 {
		return fmt.Errorf("lookback hours must be positive, got %d", cfg.LookbackHours)
	}
	if cfg.MaxArticles <= 0 {
		return fmt.Errorf("max articles per delivery must be positive, got %d", cfg.MaxArticles)
	}
	if cfg.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
	}
	return nil
}
