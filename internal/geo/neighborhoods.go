package geo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/shanehull/botleads/internal/textutil"
)

const (
	maxGeocodeResults = 10
	maxSuggestions    = 20
)

// Geocoder is satisfied by *maps.Client.
type Geocoder interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NeighborhoodSuggester mines sublocality names out of geocoding results. It
// is a typing aid for the search form: precision is not guaranteed and any
// failure yields no suggestions.
type NeighborhoodSuggester struct {
	logger *slog.Logger
	geo    Geocoder
}

func NewNeighborhoodSuggester(logger *slog.Logger, geo Geocoder) *NeighborhoodSuggester {
	return &NeighborhoodSuggester{logger: logger, geo: geo}
}

func (s *NeighborhoodSuggester) Suggest(ctx context.Context, municipality, state, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" || s.geo == nil {
		return []string{}
	}

	address := fmt.Sprintf("%s %s %s Brasil", query, municipality, state)
	results, err := s.geo.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: "br"})
	if err != nil {
		s.logger.Warn("Neighborhood geocode failed", "address", address, "err", err)
		return []string{}
	}
	if len(results) > maxGeocodeResults {
		results = results[:maxGeocodeResults]
	}

	names := []string{}
	seen := map[string]bool{}
	for _, r := range results {
		inMunicipality := resultInMunicipality(r, municipality)
		for _, comp := range r.AddressComponents {
			if !isSublocality(comp.Types) {
				continue
			}
			key := strings.ToLower(comp.LongName)
			if comp.LongName == "" || seen[key] {
				continue
			}
			// until something is kept, names outside the municipality count too
			if inMunicipality || len(seen) == 0 {
				names = append(names, comp.LongName)
				seen[key] = true
			}
			if len(names) >= maxSuggestions {
				break
			}
		}
		if len(names) >= maxSuggestions {
			break
		}
	}

	slices.Sort(names)
	return names
}

func isSublocality(types []string) bool {
	return slices.Contains(types, "sublocality") || slices.Contains(types, "sublocality_level_1")
}

// resultInMunicipality checks the first administrative_area_level_2 component.
func resultInMunicipality(r maps.GeocodingResult, municipality string) bool {
	for _, comp := range r.AddressComponents {
		if slices.Contains(comp.Types, "administrative_area_level_2") {
			return textutil.ContainsFold(comp.LongName, municipality)
		}
	}
	return false
}
