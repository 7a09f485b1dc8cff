// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, the process
// exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the matcher service.
//
// The scoring threshold and bonus weights are configuration rather than
// constants: their values are product decisions, tuned empirically, and ops
// must be able to adjust them without a rebuild.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	MatchIntervalMinutes int // how often the cron job fires; default 240
	RetrySeconds         int // back-off after a failed pass; default 60
	WorkerCount          int // concurrent subscription scanners; default 4

	ScoreThreshold float64 // minimum relevance for a match; default 0.10
	TitleWeight    float64 // default 0.3
	CompanyWeight  float64 // default 0.1
	RecencyWeight  float64 // default 0.1

	ExpoAccessToken string // optional; empty for unauthenticated projects
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("MATCHER_PORT")
	if port == "" {
		port = "8083"
	}

	interval, err := envPositiveInt("MATCH_INTERVAL_MINUTES", 240)
	if err != nil {
		return nil, err
	}
	retry, err := envPositiveInt("MATCH_RETRY_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	workers, err := envPositiveInt("MATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	threshold, err := envUnitFloat("MATCH_SCORE_THRESHOLD", 0.10)
	if err != nil {
		return nil, err
	}
	titleWeight, err := envUnitFloat("MATCH_TITLE_WEIGHT", 0.3)
	if err != nil {
		return nil, err
	}
	companyWeight, err := envUnitFloat("MATCH_COMPANY_WEIGHT", 0.1)
	if err != nil {
		return nil, err
	}
	recencyWeight, err := envUnitFloat("MATCH_RECENCY_WEIGHT", 0.1)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                 port,
		DatabaseURL:          dbURL,
		RedisURL:             redisURL,
		MatchIntervalMinutes: interval,
		RetrySeconds:         retry,
		WorkerCount:          workers,
		ScoreThreshold:       threshold,
		TitleWeight:          titleWeight,
		CompanyWeight:        companyWeight,
		RecencyWeight:        recencyWeight,
		ExpoAccessToken:      os.Getenv("EXPO_ACCESS_TOKEN"),
	}, nil
}

func envPositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}

func envUnitFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("%s must be a number in [0,1], got %q", name, s)
	}
	return v, nil
}
