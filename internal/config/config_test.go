package config_test

import (
	"testing"

	"github.com/start-upps/birjobBackend-sub001/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/birjob")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8083" {
		t.Errorf("Port = %q, want 8083", cfg.Port)
	}
	if cfg.MatchIntervalMinutes != 240 {
		t.Errorf("MatchIntervalMinutes = %d, want 240", cfg.MatchIntervalMinutes)
	}
	if cfg.RetrySeconds != 60 {
		t.Errorf("RetrySeconds = %d, want 60", cfg.RetrySeconds)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
	if cfg.ScoreThreshold != 0.10 {
		t.Errorf("ScoreThreshold = %v, want 0.10", cfg.ScoreThreshold)
	}
	if cfg.TitleWeight != 0.3 || cfg.CompanyWeight != 0.1 || cfg.RecencyWeight != 0.1 {
		t.Errorf("weights = %v/%v/%v, want 0.3/0.1/0.1",
			cfg.TitleWeight, cfg.CompanyWeight, cfg.RecencyWeight)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := config.Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoad_MissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/birjob")
	t.Setenv("REDIS_URL", "")

	if _, err := config.Load(); err == nil {
		t.Error("expected error for missing REDIS_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MATCHER_PORT", "9090")
	t.Setenv("MATCH_INTERVAL_MINUTES", "30")
	t.Setenv("MATCH_SCORE_THRESHOLD", "0.25")
	t.Setenv("MATCH_WORKERS", "8")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "9090" || cfg.MatchIntervalMinutes != 30 || cfg.ScoreThreshold != 0.25 || cfg.WorkerCount != 8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"MATCH_INTERVAL_MINUTES", "zero"},
		{"MATCH_INTERVAL_MINUTES", "0"},
		{"MATCH_RETRY_SECONDS", "-5"},
		{"MATCH_WORKERS", "many"},
		{"MATCH_SCORE_THRESHOLD", "1.5"},
		{"MATCH_SCORE_THRESHOLD", "-0.1"},
		{"MATCH_TITLE_WEIGHT", "huge"},
	}
	for _, c := range cases {
		t.Run(c.name+"="+c.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(c.name, c.value)
			if _, err := config.Load(); err == nil {
				t.Errorf("%s=%q: expected error", c.name, c.value)
			}
		})
	}
}
