package search

import (
	"log/slog"

	"googlemaps.github.io/maps"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/config"
	"github.com/shanehull/botleads/internal/enrich"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/source"
)

// Clients are the upstream handles the searchers were built on. Maps is nil
// when Google Maps is not configured. Enricher is nil unless ENRICH_WEBSITES
// is set; callers apply it with enrich.All after a search returns.
type Clients struct {
	Maps     *maps.Client
	Graph    *source.GraphClient
	Enricher enrich.Enricher
}

// NewSearchers builds the searchers for srcs. With no srcs it builds every
// source whose credential is present. A named source without its credential
// is a configuration error.
func NewSearchers(logger *slog.Logger, cfg *config.Config, srcs []model.Source) ([]source.Searcher, Clients, error) {
	var clients Clients
	explicit := len(srcs) > 0
	if !explicit {
		if cfg.GoogleMapsAPIKey != "" {
			srcs = append(srcs, model.SourceGoogleMaps)
		}
		if cfg.FacebookAccessToken != "" {
			srcs = append(srcs, model.SourceFacebook, model.SourceInstagram)
		}
		if len(srcs) == 0 {
			return nil, clients, apperr.Config("no credentials set: configure GOOGLE_MAPS_API_KEY or FACEBOOK_ACCESS_TOKEN")
		}
	}

	var searchers []source.Searcher
	for _, src := range srcs {
		srcLogger := logger.With("source", src.String())
		switch src {
		case model.SourceGoogleMaps:
			if clients.Maps == nil {
				c, err := source.NewGoogleMapsClient(cfg.GoogleMapsAPIKey)
				if err != nil {
					return nil, clients, err
				}
				clients.Maps = c
			}
			s, err := source.NewMapsSearcher(srcLogger, clients.Maps)
			if err != nil {
				return nil, clients, err
			}
			searchers = append(searchers, s)
		case model.SourceFacebook, model.SourceInstagram:
			if clients.Graph == nil {
				g, err := source.NewGraphClient(cfg.GraphAPIURL, cfg.FacebookAccessToken)
				if err != nil {
					return nil, clients, err
				}
				clients.Graph = g
			}
			var (
				s   source.Searcher
				err error
			)
			if src == model.SourceFacebook {
				s, err = source.NewFacebookSearcher(srcLogger, clients.Graph)
			} else {
				s, err = source.NewInstagramSearcher(srcLogger, clients.Graph)
			}
			if err != nil {
				return nil, clients, err
			}
			searchers = append(searchers, s)
		default:
			return nil, clients, apperr.Config("unsupported source " + src.String())
		}
	}
	return searchers, clients, nil
}

// FromConfig wires an orchestrator the way both binaries run it.
func FromConfig(logger *slog.Logger, cfg *config.Config, srcs []model.Source) (*Orchestrator, Clients, error) {
	searchers, clients, err := NewSearchers(logger, cfg, srcs)
	if err != nil {
		return nil, clients, err
	}

	var opts []Option
	if def, err := model.ParseSource(cfg.DefaultSource); err == nil {
		opts = append(opts, WithDefault(def))
	} else {
		logger.Warn("Ignoring DEFAULT_SOURCE", "value", cfg.DefaultSource, "err", err)
	}
	if cfg.EnrichWebsites {
		clients.Enricher = enrich.NewWebsiteEnricher(logger)
	}

	o, err := New(logger.With("component", "search"), searchers, opts...)
	return o, clients, err
}
