// Package config loads application configuration from the environment,
// with optional .env file support.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. It is loaded once at startup and not
// mutated afterwards.
type Config struct {
	// Reddit API credentials (api mode only).
	RedditClientID     string `envconfig:"REDDIT_CLIENT_ID"`
	RedditClientSecret string `envconfig:"REDDIT_CLIENT_SECRET"`
	RedditUsername     string `envconfig:"REDDIT_USERNAME"`
	RedditPassword     string `envconfig:"REDDIT_PASSWORD"`
	RedditUserAgent    string `envconfig:"REDDIT_USER_AGENT" default:"redditwatch/1.0"`

	// CollectorMode selects the fetching backend: api, public, or mock.
	CollectorMode string `envconfig:"COLLECTOR_MODE" default:"public"`

	// Monitoring targets.
	TargetSubreddits []string `envconfig:"TARGET_SUBREDDITS" default:"SaaS,startup"`
	Keywords         []string `envconfig:"KEYWORDS" default:"feedback,customer"`

	// MonitorIntervalMinutes is the wall-clock polling interval.
	MonitorIntervalMinutes int `envconfig:"MONITOR_INTERVAL" default:"120"`
	FetchLimit             int `envconfig:"FETCH_LIMIT" default:"25"`

	// Optional CSV overrides for subreddit and keyword lists.
	TargetsFile  string `envconfig:"TARGETS_FILE"`
	KeywordsFile string `envconfig:"KEYWORDS_FILE"`

	DatabaseFile string `envconfig:"DATABASE_FILE" default:"reddit_data.db"`

	LogFile   string `envconfig:"LOG_FILE" default:"reddit_monitor.log"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// AI relevance analysis (optional).
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AIModel         string `envconfig:"AI_MODEL" default:"claude-3-5-haiku-latest"`

	DashboardPort string `envconfig:"DASHBOARD_PORT" default:"8080"`
}

// Load reads a .env file if present, then processes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	cfg.TargetSubreddits = trimAll(cfg.TargetSubreddits)
	cfg.Keywords = trimAll(cfg.Keywords)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CollectorMode {
	case "api", "public", "mock":
	default:
		return fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", c.CollectorMode)
	}
	if c.MonitorIntervalMinutes <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive, got %d", c.MonitorIntervalMinutes)
	}
	if c.FetchLimit <= 0 || c.FetchLimit > 100 {
		return fmt.Errorf("FETCH_LIMIT must be between 1 and 100, got %d", c.FetchLimit)
	}
	return nil
}

// MonitorInterval returns the polling interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalMinutes) * time.Minute
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
