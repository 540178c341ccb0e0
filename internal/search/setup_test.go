package search

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/config"
	"github.com/shanehull/botleads/internal/model"
)

func TestNewSearchersFromCredentials(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	_, _, err := NewSearchers(logger, &config.Config{}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	cfg := &config.Config{FacebookAccessToken: "tok", GraphAPIURL: config.DefaultGraphAPIURL}
	searchers, clients, err := NewSearchers(logger, cfg, nil)
	require.NoError(t, err)
	require.Len(t, searchers, 2)
	assert.Equal(t, model.SourceFacebook, searchers[0].Source())
	assert.Equal(t, model.SourceInstagram, searchers[1].Source())
	assert.Nil(t, clients.Maps)
	assert.NotNil(t, clients.Graph)

	// naming a source without its credential fails at construction
	_, _, err = NewSearchers(logger, cfg, []model.Source{model.SourceGoogleMaps})
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		GoogleMapsAPIKey:    "key",
		FacebookAccessToken: "tok",
		GraphAPIURL:         config.DefaultGraphAPIURL,
		DefaultSource:       "instagram",
		EnrichWebsites:      true,
	}

	o, clients, err := FromConfig(slog.New(slog.DiscardHandler), cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, clients.Maps)
	assert.Equal(t, model.SourceInstagram, o.Default())
	assert.Equal(t, []model.Source{model.SourceGoogleMaps, model.SourceFacebook, model.SourceInstagram}, o.Sources())
	assert.NotNil(t, clients.Enricher)

	cfg.EnrichWebsites = false
	_, clients, err = FromConfig(slog.New(slog.DiscardHandler), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, clients.Enricher)
}
