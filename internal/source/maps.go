package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/model"
)

const (
	mapsLanguage  = "pt-BR"
	mapsMaxPages  = 3 // the API serves 20 results per page, so at most 60
	mapsPageDelay = 2 * time.Second
	mapsTimeout   = 30 * time.Second
	placeLinkFmt  = "https://www.google.com/maps/place/?q=place_id:%s"
)

// text search does not return phones, so every hit needs a details call
var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskInternationalPhoneNumber,
	maps.PlaceDetailsFieldMaskURL,
}

// PlacesAPI is the subset of *maps.Client the searcher and the neighborhood
// suggester use.
type PlacesAPI interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

var _ PlacesAPI = (*maps.Client)(nil)

// NewGoogleMapsClient builds the shared client. A missing key is a
// configuration error.
func NewGoogleMapsClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Config("GOOGLE_MAPS_API_KEY is required for the Google Maps searcher")
	}
	all := append([]maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: mapsTimeout}),
	}, opts...)
	c, err := maps.NewClient(all...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, "google maps client", err)
	}
	return c, nil
}

type MapsSearcher struct {
	logger    *slog.Logger
	client    PlacesAPI
	maxPages  int
	pageDelay time.Duration
	wait      func(ctx context.Context, d time.Duration) error
}

type MapsOption func(*MapsSearcher)

// WithPageWait replaces the sleep between pages.
func WithPageWait(wait func(ctx context.Context, d time.Duration) error) MapsOption {
	return func(s *MapsSearcher) { s.wait = wait }
}

func NewMapsSearcher(logger *slog.Logger, client PlacesAPI, opts ...MapsOption) (*MapsSearcher, error) {
	if client == nil {
		return nil, apperr.Config("google maps client is required")
	}
	s := &MapsSearcher{
		logger:    logger,
		client:    client,
		maxPages:  mapsMaxPages,
		pageDelay: mapsPageDelay,
		wait:      sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *MapsSearcher) Name() string { return "GoogleMaps" }

func (s *MapsSearcher) Source() model.Source { return model.SourceGoogleMaps }

func (s *MapsSearcher) Search(ctx context.Context, q model.Query) []model.Lead {
	query := fmt.Sprintf("%s em %s", q.Category, q.LocationPhrase())
	logger := s.logger.With("query", query)
	logger.Info("Searching Google Maps")

	st := &stats{}
	leads, err := s.textSearch(ctx, logger, query, q, st)
	if err != nil {
		logger.Error("Text search failed", "err", err)
		var ferr error
		if ctx.Err() == nil {
			var more []model.Lead
			more, ferr = s.fallback(ctx, logger, q, st)
			leads = append(leads, more...)
			if ferr != nil {
				logger.Error("Fallback search failed", "err", ferr)
			}
		}
		// one diagnostic per search, naming every API the key was refused for
		switch {
		case apperr.IsDenied(ferr):
			reportDenied(logger, "Google Maps", googleConsoleURL, []string{"Geocoding API", "Places API"}, ferr)
		case apperr.IsDenied(err):
			reportDenied(logger, "Google Maps", googleConsoleURL, []string{"Places API"}, err)
		}
	}

	st.log(logger)
	if leads == nil {
		leads = []model.Lead{}
	}
	return leads
}

// textSearch walks up to maxPages pages. The leads gathered before an error
// are returned along with it.
func (s *MapsSearcher) textSearch(ctx context.Context, logger *slog.Logger, query string, q model.Query, st *stats) ([]model.Lead, error) {
	var leads []model.Lead
	token := ""

	for page := 0; page < s.maxPages; page++ {
		if page > 0 {
			// next_page_token is not valid until a short while after it is issued
			if err := s.wait(ctx, s.pageDelay); err != nil {
				return leads, err
			}
		}

		resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
			Query:     query,
			Language:  mapsLanguage,
			PageToken: token,
		})
		if err != nil {
			return leads, fmt.Errorf("text search page %d: %w", page+1, err)
		}
		if resp.Results == nil {
			logger.Info("No results returned", "page", page+1)
			break
		}

		logger.Debug("Page fetched", "page", page+1, "results", len(resp.Results))
		leads = s.collect(ctx, logger, resp.Results, q, st, leads)

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}
	return leads, nil
}

// fallback geocodes the bare municipality and retries once with a
// differently worded query.
func (s *MapsSearcher) fallback(ctx context.Context, logger *slog.Logger, q model.Query, st *stats) ([]model.Lead, error) {
	geo, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: q.CityPhrase()})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", q.CityPhrase(), err)
	}
	if len(geo) == 0 {
		logger.Warn("Fallback geocode found nothing", "address", q.CityPhrase())
		return nil, nil
	}

	query := fmt.Sprintf("%s %s %s Brasil", q.Category, q.Municipality, q.State)
	logger.Info("Retrying with fallback query", "fallback_query", query)

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query, Language: mapsLanguage})
	if err != nil {
		return nil, fmt.Errorf("fallback text search: %w", err)
	}
	return s.collect(ctx, logger, resp.Results, q, st, nil), nil
}

func (s *MapsSearcher) collect(ctx context.Context, logger *slog.Logger, hits []maps.PlacesSearchResult, q model.Query, st *stats, leads []model.Lead) []model.Lead {
	for _, hit := range hits {
		if hit.PlaceID == "" {
			continue
		}
		out := s.place(ctx, hit, q)
		if out.status == itemFailed {
			logger.Warn("Place details failed", "place_id", hit.PlaceID, "err", out.err)
		}
		leads = st.add(leads, out)
	}
	return leads
}

// place resolves one hit. Geometry comes from the search hit because the
// details request does not ask for it.
func (s *MapsSearcher) place(ctx context.Context, hit maps.PlacesSearchResult, q model.Query) itemOutcome {
	details, err := s.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  hit.PlaceID,
		Language: mapsLanguage,
		Fields:   detailFields,
	})
	if err != nil {
		return failed(err)
	}

	phone := firstNonEmpty(details.FormattedPhoneNumber, details.InternationalPhoneNumber)
	if q.PhoneRequired && phone == "" {
		return droppedNoPhone()
	}

	link := details.URL
	if link == "" {
		link = fmt.Sprintf(placeLinkFmt, hit.PlaceID)
	}

	return built(model.NewLead(model.LeadParams{
		Name:        firstNonEmpty(details.Name, hit.Name),
		Address:     firstNonEmpty(details.FormattedAddress, hit.FormattedAddress),
		Phone:       phone,
		Latitude:    hit.Geometry.Location.Lat,
		Longitude:   hit.Geometry.Location.Lng,
		Category:    q.Category,
		Source:      model.SourceGoogleMaps,
		ProfileLink: link,
	}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
