package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("GRAPH_API_URL", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, DefaultGraphAPIURL, cfg.GraphAPIURL)
	assert.Empty(t, cfg.GoogleMapsAPIKey)
	assert.Equal(t, 2.0, cfg.RateLimitRPS)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "key")
	t.Setenv("PORT", "8081")
	t.Setenv("GRAPH_API_URL", "http://localhost:9999/v18.0/")
	t.Setenv("ENRICH_WEBSITES", "TRUE")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.GoogleMapsAPIKey)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:9999/v18.0", cfg.GraphAPIURL)
	assert.True(t, cfg.EnrichWebsites)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsBadRate(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "fast")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT_RPS", "0")
	_, err = Load()
	assert.Error(t, err)
}
