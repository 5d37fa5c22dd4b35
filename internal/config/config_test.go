package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so the host environment
// doesn't leak into assertions. envconfig treats set-but-empty variables as
// present, so the keys must be truly unset, not blanked.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_USERNAME",
		"REDDIT_PASSWORD", "REDDIT_USER_AGENT", "COLLECTOR_MODE",
		"TARGET_SUBREDDITS", "KEYWORDS", "MONITOR_INTERVAL", "FETCH_LIMIT",
		"TARGETS_FILE", "KEYWORDS_FILE", "DATABASE_FILE", "LOG_FILE",
		"LOG_FORMAT", "LOG_LEVEL", "ANTHROPIC_API_KEY", "AI_MODEL",
		"DASHBOARD_PORT",
	} {
		if v, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, v) })
			os.Unsetenv(key)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.CollectorMode != "public" {
		t.Errorf("CollectorMode = %q, want public", cfg.CollectorMode)
	}
	if !reflect.DeepEqual(cfg.TargetSubreddits, []string{"SaaS", "startup"}) {
		t.Errorf("TargetSubreddits = %v", cfg.TargetSubreddits)
	}
	if !reflect.DeepEqual(cfg.Keywords, []string{"feedback", "customer"}) {
		t.Errorf("Keywords = %v", cfg.Keywords)
	}
	if cfg.MonitorInterval() != 120*time.Minute {
		t.Errorf("MonitorInterval = %v, want 2h", cfg.MonitorInterval())
	}
	if cfg.FetchLimit != 25 {
		t.Errorf("FetchLimit = %d, want 25", cfg.FetchLimit)
	}
	if cfg.DatabaseFile != "reddit_data.db" {
		t.Errorf("DatabaseFile = %q", cfg.DatabaseFile)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLECTOR_MODE", "mock")
	t.Setenv("TARGET_SUBREDDITS", "golang, rust ,  ")
	t.Setenv("KEYWORDS", "generics,borrow checker")
	t.Setenv("MONITOR_INTERVAL", "30")
	t.Setenv("FETCH_LIMIT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(cfg.TargetSubreddits, []string{"golang", "rust"}) {
		t.Errorf("TargetSubreddits = %v, blanks should be trimmed", cfg.TargetSubreddits)
	}
	if !reflect.DeepEqual(cfg.Keywords, []string{"generics", "borrow checker"}) {
		t.Errorf("Keywords = %v", cfg.Keywords)
	}
	if cfg.MonitorInterval() != 30*time.Minute {
		t.Errorf("MonitorInterval = %v, want 30m", cfg.MonitorInterval())
	}
	if cfg.FetchLimit != 50 {
		t.Errorf("FetchLimit = %d, want 50", cfg.FetchLimit)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown collector mode", "COLLECTOR_MODE", "scrapy"},
		{"zero interval", "MONITOR_INTERVAL", "0"},
		{"negative interval", "MONITOR_INTERVAL", "-5"},
		{"zero fetch limit", "FETCH_LIMIT", "0"},
		{"oversized fetch limit", "FETCH_LIMIT", "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%s", tt.key, tt.value)
			}
		})
	}
}
