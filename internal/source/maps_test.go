package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/model"
)

type fakePlaces struct {
	searches []*maps.TextSearchRequest
	geocodes []*maps.GeocodingRequest

	search   func(call int, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	details  map[string]maps.PlaceDetailsResult
	detailOK func(id string) error
	geocode  func(r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

func (f *fakePlaces) TextSearch(_ context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
	f.searches = append(f.searches, r)
	return f.search(len(f.searches), r)
}

func (f *fakePlaces) PlaceDetails(_ context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error) {
	if f.detailOK != nil {
		if err := f.detailOK(r.PlaceID); err != nil {
			return maps.PlaceDetailsResult{}, err
		}
	}
	return f.details[r.PlaceID], nil
}

func (f *fakePlaces) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.geocodes = append(f.geocodes, r)
	if f.geocode == nil {
		return nil, errors.New("geocode not expected")
	}
	return f.geocode(r)
}

func hit(id, name string, lat, lng float64) maps.PlacesSearchResult {
	r := maps.PlacesSearchResult{PlaceID: id, Name: name}
	r.Geometry.Location = maps.LatLng{Lat: lat, Lng: lng}
	return r
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// waitRecorder notes each wait and how many page requests preceded it.
type waitRecorder struct {
	places         *fakePlaces
	waits          []time.Duration
	searchesAtWait []int
}

func (w *waitRecorder) wait(_ context.Context, d time.Duration) error {
	w.waits = append(w.waits, d)
	w.searchesAtWait = append(w.searchesAtWait, len(w.places.searches))
	return nil
}

func newTestMapsSearcher(t *testing.T, places *fakePlaces) (*MapsSearcher, *waitRecorder, *bytes.Buffer) {
	t.Helper()
	logger, buf := bufferLogger()
	rec := &waitRecorder{places: places}
	s, err := NewMapsSearcher(logger, places, WithPageWait(rec.wait))
	require.NoError(t, err)
	return s, rec, buf
}

var spQuery = model.Query{State: "São Paulo", Municipality: "São Paulo", Category: "padaria"}

func TestMapsSearcherStopsAfterThreePages(t *testing.T) {
	places := &fakePlaces{
		search: func(call int, _ *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{
				Results:       []maps.PlacesSearchResult{hit(fmt.Sprintf("p%d", call), "Padaria", 1, 1)},
				NextPageToken: fmt.Sprintf("token-%d", call),
			}, nil
		},
		details: map[string]maps.PlaceDetailsResult{},
	}
	s, rec, _ := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	assert.Len(t, places.searches, 3)
	assert.Len(t, leads, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.waits)
	// waits happen before pages 2 and 3 only
	assert.Equal(t, []int{1, 2}, rec.searchesAtWait)

	assert.Empty(t, places.searches[0].PageToken)
	assert.Equal(t, "token-1", places.searches[1].PageToken)
	assert.Equal(t, "token-2", places.searches[2].PageToken)
	for _, r := range places.searches {
		assert.Equal(t, "padaria em São Paulo, São Paulo, Brasil", r.Query)
		assert.Equal(t, "pt-BR", r.Language)
	}
}

func TestMapsSearcherStopsWithoutToken(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{hit("a", "A", 1, 2)}}, nil
		},
	}
	s, rec, _ := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	assert.Len(t, places.searches, 1)
	assert.Empty(t, rec.waits)
	assert.Len(t, leads, 1)
}

func TestMapsSearcherStopsOnMissingResults(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{NextPageToken: "more"}, nil
		},
	}
	s, rec, _ := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	assert.Len(t, places.searches, 1)
	assert.Empty(t, rec.waits)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
}

func TestMapsSearcherSinglePlace(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{hit("abc", "Padaria Teste", 10.0, 20.0)}}, nil
		},
		details: map[string]maps.PlaceDetailsResult{
			"abc": {Name: "Padaria Teste", FormattedAddress: "Rua A, 1 - São Paulo"},
		},
	}
	s, _, _ := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	require.Len(t, leads, 1)
	l := leads[0]
	assert.Equal(t, "Padaria Teste", l.Name)
	assert.False(t, l.HasPhone())
	assert.Equal(t, 10.0, l.Latitude)
	assert.Equal(t, 20.0, l.Longitude)
	assert.Equal(t, "padaria", l.Category)
	assert.Equal(t, model.SourceGoogleMaps, l.Source)
	assert.Equal(t, "https://www.google.com/maps/place/?q=place_id:abc", l.ProfileLink)
}

func TestMapsSearcherPhoneResolution(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{
				hit("local", "", 0, 0),
				hit("intl", "Só Internacional", 0, 0),
				hit("none", "Sem Telefone", 0, 0),
				{Name: "no place id"},
			}}, nil
		},
		details: map[string]maps.PlaceDetailsResult{
			"local": {Name: "Local", FormattedPhoneNumber: "(11) 3333-4444", InternationalPhoneNumber: "+55 11 3333-4444", URL: "https://maps.google.com/?cid=1"},
			"intl":  {InternationalPhoneNumber: "+55 11 5555-6666"},
			"none":  {Name: "Sem Telefone"},
		},
	}

	t.Run("phone optional", func(t *testing.T) {
		s, _, _ := newTestMapsSearcher(t, places)
		leads := s.Search(context.Background(), spQuery)
		require.Len(t, leads, 3)
		assert.Equal(t, "(11) 3333-4444", leads[0].Phone)
		assert.Equal(t, "https://maps.google.com/?cid=1", leads[0].ProfileLink)
		assert.Equal(t, "+55 11 5555-6666", leads[1].Phone)
		assert.Equal(t, "Só Internacional", leads[1].Name)
		assert.Equal(t, model.NotAvailable, leads[1].Address)
		assert.Empty(t, leads[2].Phone)
	})

	t.Run("phone required", func(t *testing.T) {
		s, _, _ := newTestMapsSearcher(t, places)
		q := spQuery
		q.PhoneRequired = true
		leads := s.Search(context.Background(), q)
		require.Len(t, leads, 2)
		for _, l := range leads {
			assert.True(t, l.HasPhone())
		}
	})
}

func TestMapsSearcherSkipsFailedDetails(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{
				hit("bad", "Bad", 0, 0),
				hit("good", "Good", 0, 0),
			}}, nil
		},
		details: map[string]maps.PlaceDetailsResult{"good": {Name: "Good"}},
	}
	places.detailOK = func(id string) error {
		if id == "bad" {
			return errors.New("maps: NOT_FOUND")
		}
		return nil
	}
	s, _, buf := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	require.Len(t, leads, 1)
	assert.Equal(t, "Good", leads[0].Name)
	assert.Contains(t, buf.String(), "Place details failed")
	assert.Contains(t, buf.String(), "failed=1")
}

func TestMapsSearcherDenied(t *testing.T) {
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{}, errors.New("maps: REQUEST_DENIED - This API project is not authorized to use this API.")
		},
		geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
			return nil, nil
		},
	}
	s, _, buf := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	assert.NotNil(t, leads)
	assert.Empty(t, leads)
	assert.Contains(t, buf.String(), "Upstream denied the request")
	assert.Contains(t, buf.String(), "Places API")
	// the one fallback still runs; its geocode finds nothing here
	assert.Len(t, places.geocodes, 1)
	assert.Len(t, places.searches, 1)
	assert.Equal(t, 1, strings.Count(buf.String(), "Upstream denied the request"))
}

func TestMapsSearcherDeniedFallbackRecovers(t *testing.T) {
	places := &fakePlaces{
		search: func(call int, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			if call == 1 {
				return maps.PlacesSearchResponse{}, errors.New("maps: REQUEST_DENIED - This API project is not authorized to use this API.")
			}
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{hit("x", "Padaria X", 1, 2)}}, nil
		},
		details: map[string]maps.PlaceDetailsResult{"x": {Name: "Padaria X"}},
		geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
			return []maps.GeocodingResult{{FormattedAddress: "São Paulo, SP"}}, nil
		},
	}
	s, _, buf := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	require.Len(t, leads, 1)
	assert.Equal(t, "Padaria X", leads[0].Name)
	assert.Contains(t, buf.String(), "Upstream denied the request")
}

func TestMapsSearcherDeniedEverywhere(t *testing.T) {
	denied := errors.New("maps: REQUEST_DENIED - This API project is not authorized to use this API.")
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			return maps.PlacesSearchResponse{}, denied
		},
		geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
			return nil, denied
		},
	}
	s, _, buf := newTestMapsSearcher(t, places)

	assert.Empty(t, s.Search(context.Background(), spQuery))
	assert.Equal(t, 1, strings.Count(buf.String(), "Upstream denied the request"))
	assert.Contains(t, buf.String(), "Geocoding API")
}

func TestMapsSearcherFallback(t *testing.T) {
	places := &fakePlaces{
		search: func(call int, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			if call == 1 {
				return maps.PlacesSearchResponse{}, errors.New("maps: UNKNOWN_ERROR")
			}
			return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{hit("x", "Padaria X", 1, 2)}}, nil
		},
		details: map[string]maps.PlaceDetailsResult{"x": {Name: "Padaria X"}},
		geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
			return []maps.GeocodingResult{{FormattedAddress: "São Paulo, SP"}}, nil
		},
	}
	s, _, _ := newTestMapsSearcher(t, places)

	q := spQuery
	q.Neighborhood = "Moema"
	leads := s.Search(context.Background(), q)

	require.Len(t, leads, 1)
	assert.Equal(t, "Padaria X", leads[0].Name)
	require.Len(t, places.geocodes, 1)
	assert.Equal(t, "São Paulo, São Paulo, Brasil", places.geocodes[0].Address)
	require.Len(t, places.searches, 2)
	assert.Equal(t, "padaria em Moema, São Paulo, São Paulo, Brasil", places.searches[0].Query)
	assert.Equal(t, "padaria São Paulo São Paulo Brasil", places.searches[1].Query)
}

func TestMapsSearcherFallbackFailureKeepsEarlierPages(t *testing.T) {
	places := &fakePlaces{
		search: func(call int, _ *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			if call == 1 {
				return maps.PlacesSearchResponse{Results: []maps.PlacesSearchResult{hit("a", "A", 0, 0)}, NextPageToken: "t"}, nil
			}
			return maps.PlacesSearchResponse{}, errors.New("maps: OVER_QUERY_LIMIT")
		},
		details: map[string]maps.PlaceDetailsResult{"a": {Name: "A"}},
		geocode: func(*maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
			return nil, errors.New("maps: ZERO_RESULTS")
		},
	}
	s, _, buf := newTestMapsSearcher(t, places)

	leads := s.Search(context.Background(), spQuery)

	require.Len(t, leads, 1)
	assert.Len(t, places.geocodes, 1)
	assert.Len(t, places.searches, 2)
	assert.Contains(t, buf.String(), "Fallback search failed")
}

func TestMapsSearcherCancelledSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	places := &fakePlaces{
		search: func(int, *maps.TextSearchRequest) (maps.PlacesSearchResponse, error) {
			cancel()
			return maps.PlacesSearchResponse{}, context.Canceled
		},
	}
	s, _, _ := newTestMapsSearcher(t, places)

	leads := s.Search(ctx, spQuery)

	assert.Empty(t, leads)
	assert.Empty(t, places.geocodes)
}

func TestNewMapsSearcherRequiresClient(t *testing.T) {
	_, err := NewMapsSearcher(slog.Default(), nil)
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	_, err = NewGoogleMapsClient("  ")
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	c, err := NewGoogleMapsClient("AIza-test")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
