package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Sources   SourcesConfig   `yaml:"sources"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig configures the SQLite record cache.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig configures the aggregation pipeline defaults.
type PipelineConfig struct {
	Policy        string `yaml:"policy"`
	LookbackDays  int    `yaml:"lookback_days"`
	IntervalDays  int    `yaml:"interval_days"`
	Rescale       bool   `yaml:"rescale"`
	SourceTimeout string `yaml:"source_timeout"`
}

// ParseSourceTimeout returns the per-source fetch timeout as time.Duration.
func (p PipelineConfig) ParseSourceTimeout() time.Duration {
	d, err := time.ParseDuration(p.SourceTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// SourcesConfig holds configuration for all providers. Priority is the
// fallback order the coordinator walks.
type SourcesConfig struct {
	Priority   []string            `yaml:"priority"`
	News       NewsConfig          `yaml:"news"`
	StockTwits StockTwitsConfig    `yaml:"stocktwits"`
	Reddit     RedditConfig        `yaml:"reddit"`
	RSS        RSSConfig           `yaml:"rss"`
	Aliases    map[string][]string `yaml:"aliases"`
	Exclude    []string            `yaml:"exclude"`
}

// NewsConfig for the EODHD news adapter.
type NewsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Limit   int    `yaml:"limit"`
}

// StockTwitsConfig for the StockTwits stream adapter.
type StockTwitsConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

// RedditConfig for the Reddit search adapter.
type RedditConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Limit        int    `yaml:"limit"`
}

// RSSConfig for the financial feed adapter.
type RSSConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// WatchlistConfig configures the background refresh of tracked tickers.
type WatchlistConfig struct {
	Tickers          []string `yaml:"tickers"`
	RefreshInterval  string   `yaml:"refresh_interval"`
	BullishThreshold float64  `yaml:"bullish_threshold"`
	BearishThreshold float64  `yaml:"bearish_threshold"`
}

// ParseRefreshInterval returns the watchlist refresh interval.
func (w WatchlistConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(w.RefreshInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./tickersent.db"},
		Pipeline: PipelineConfig{
			Policy:        "weekly",
			LookbackDays:  84, // 12 weeks
			IntervalDays:  7,
			Rescale:       false,
			SourceTimeout: "15s",
		},
		Sources: SourcesConfig{
			Priority:   []string{"news", "stocktwits", "reddit", "rss"},
			News:       NewsConfig{Enabled: true, Limit: 50},
			StockTwits: StockTwitsConfig{Enabled: true, Limit: 30},
			Reddit:     RedditConfig{Enabled: false, Limit: 100},
			RSS: RSSConfig{
				Enabled: true,
				Feeds: []FeedItem{
					{Name: "CNBC Markets", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
					{Name: "MarketWatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories"},
					{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
				},
			},
			Aliases: map[string][]string{
				"NVDA": {"nvidia"},
				"AAPL": {"apple"},
				"TSLA": {"tesla"},
			},
		},
		Watchlist: WatchlistConfig{
			RefreshInterval:  "1h",
			BullishThreshold: 8.0,
			BearishThreshold: 3.0,
		},
		Alerts: AlertsConfig{},
		Server: ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TICKERSENT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		cfg.Sources.News.APIKey = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
