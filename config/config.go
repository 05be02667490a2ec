package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the environment-supplied settings the server needs at startup
type Config struct {
	Port           string
	MatcherBaseURL string
	MatcherTimeout time.Duration
	StoreTimeout   time.Duration
	CandidateTTL   time.Duration
	ReaperWarmup   time.Duration
	ReaperInterval time.Duration
	AWSRegion      string
	S3Bucket       string
}

// Load reads configuration from the environment, applying safe defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		MatcherBaseURL: getEnv("VIBE_MATCHER_URL", "http://localhost:8000"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET_NAME", ""),
	}

	var err error
	if cfg.MatcherTimeout, err = getDuration("MATCHER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CandidateTTL, err = getDuration("CANDIDATE_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReaperWarmup, err = getDuration("REAPER_WARMUP", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReaperInterval, err = getDuration("REAPER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.MatcherBaseURL == "" {
		return nil, fmt.Errorf("VIBE_MATCHER_URL must not be empty")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
