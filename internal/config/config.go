// Package config loads process configuration from the environment (and an
// optional .env file). Upstream credentials are optional here: the searcher
// constructors decide whether a missing one is fatal.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGraphAPIURL = "https://graph.facebook.com/v18.0"
	DefaultIBGEAPIURL  = "https://servicodados.ibge.gov.br/api/v1/localidades"
)

type Config struct {
	Env      string
	HTTPAddr string

	GoogleMapsAPIKey    string
	FacebookAccessToken string
	GraphAPIURL         string
	IBGEAPIURL          string

	// DefaultSource is used when a request does not name one.
	DefaultSource  string
	EnrichWebsites bool
	LeadsDBPath    string // empty disables the archive

	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":"+getEnv("PORT", "5000")),
		GoogleMapsAPIKey:    getEnv("GOOGLE_MAPS_API_KEY", ""),
		FacebookAccessToken: getEnv("FACEBOOK_ACCESS_TOKEN", ""),
		GraphAPIURL:         strings.TrimRight(getEnv("GRAPH_API_URL", DefaultGraphAPIURL), "/"),
		IBGEAPIURL:          strings.TrimRight(getEnv("IBGE_API_URL", DefaultIBGEAPIURL), "/"),
		DefaultSource:       getEnv("DEFAULT_SOURCE", "maps"),
		EnrichWebsites:      strings.EqualFold(getEnv("ENRICH_WEBSITES", "false"), "true"),
		LeadsDBPath:         getEnv("LEADS_DB_PATH", ""),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "2"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "5")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
