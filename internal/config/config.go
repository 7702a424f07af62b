package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultAppAddr      = ":8080"
	defaultDatabaseURL  = "shuttle.db"
	defaultJWTAccessTTL = "24h"
	defaultShuttleTTL   = "60s"
	defaultUserTTL      = "5m"
)

type Config struct {
	AppAddr     string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	CORSAllowedOrigins []string

	// Read-through cache lifetimes. The cache is opportunistic only; a miss
	// always falls through to the database.
	ShuttleCacheTTL time.Duration
	UserCacheTTL    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppAddr:     envOrDefault("APP_ADDR", defaultAppAddr),
		DatabaseURL: envOrDefault("DATABASE_URL", defaultDatabaseURL),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}

	var err error
	if cfg.JWTAccessTTL, err = durationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.ShuttleCacheTTL, err = durationEnv("SHUTTLE_CACHE_TTL", defaultShuttleTTL); err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL, err = durationEnv("USER_CACHE_TTL", defaultUserTTL); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}
