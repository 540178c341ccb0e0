package geo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/shanehull/botleads/internal/apperr"
)

func newIBGEServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/estados", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":35,"sigla":"SP","nome":"São Paulo","regiao":{"id":3}},
			{"id":12,"sigla":"AC","nome":"Acre"},
			{"id":16,"sigla":"AP","nome":"Amapá"},
			{"id":13,"sigla":"AM","nome":"Amazonas"}
		]`))
	})
	mux.HandleFunc("/estados/35/municipios", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":3550308,"nome":"São Paulo"},
			{"id":3500105,"nome":"Adamantina"},
			{"id":3500600,"nome":"Águas de Lindóia"},
			{"id":3500501,"nome":"Aguaí"}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIBGEStates(t *testing.T) {
	c := NewIBGEClient(newIBGEServer(t).URL + "/")

	states, err := c.States(context.Background())

	require.NoError(t, err)
	var names []string
	for _, s := range states {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Acre", "Amapá", "Amazonas", "São Paulo"}, names)
	assert.Equal(t, State{ID: 35, Name: "São Paulo", Abbrev: "SP"}, states[3])
}

func TestIBGEMunicipalitiesByAbbrev(t *testing.T) {
	c := NewIBGEClient(newIBGEServer(t).URL)

	ms, err := c.MunicipalitiesByAbbrev(context.Background(), "sp")

	require.NoError(t, err)
	require.Len(t, ms, 4)
	assert.Equal(t, "Adamantina", ms[0].Name)
	assert.Equal(t, "Aguaí", ms[1].Name)
	assert.Equal(t, "Águas de Lindóia", ms[2].Name)
	assert.Equal(t, Municipality{ID: 3550308, Name: "São Paulo"}, ms[3])

	_, err = c.MunicipalitiesByAbbrev(context.Background(), "XX")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestIBGEUpstreamError(t *testing.T) {
	c := NewIBGEClient(newIBGEServer(t).URL)

	_, err := c.Municipalities(context.Background(), 99)

	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.ErrorContains(t, err, "ibge /estados/99/municipios")
}

type fakeGeocoder struct {
	req     *maps.GeocodingRequest
	results []maps.GeocodingResult
	err     error
}

func (f *fakeGeocoder) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.req = r
	return f.results, f.err
}

func result(municipality string, sublocalities ...string) maps.GeocodingResult {
	var r maps.GeocodingResult
	for _, s := range sublocalities {
		r.AddressComponents = append(r.AddressComponents, maps.AddressComponent{
			LongName: s, Types: []string{"political", "sublocality", "sublocality_level_1"},
		})
	}
	r.AddressComponents = append(r.AddressComponents, maps.AddressComponent{
		LongName: municipality, Types: []string{"administrative_area_level_2", "political"},
	})
	return r
}

func TestNeighborhoodSuggester(t *testing.T) {
	g := &fakeGeocoder{results: []maps.GeocodingResult{
		result("São Paulo", "Vila Mariana"),
		result("Sao Paulo", "Moema", "vila mariana"),
		result("Campinas", "Cambuí"),
		result("São Paulo", "Jardim Paulista"),
	}}
	s := NewNeighborhoodSuggester(slog.New(slog.DiscardHandler), g)

	got := s.Suggest(context.Background(), "São Paulo", "SP", "vila")

	assert.Equal(t, []string{"Jardim Paulista", "Moema", "Vila Mariana"}, got)
	assert.Equal(t, "vila São Paulo SP Brasil", g.req.Address)
	assert.Equal(t, "br", g.req.Region)
}

func TestNeighborhoodSuggesterKeepsFirstOutsider(t *testing.T) {
	g := &fakeGeocoder{results: []maps.GeocodingResult{
		result("Campinas", "Cambuí"),
		result("Valinhos", "Centro"),
	}}
	s := NewNeighborhoodSuggester(slog.New(slog.DiscardHandler), g)

	assert.Equal(t, []string{"Cambuí"}, s.Suggest(context.Background(), "São Paulo", "SP", "c"))
}

func TestNeighborhoodSuggesterEmpty(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("maps: REQUEST_DENIED")}
	s := NewNeighborhoodSuggester(slog.New(slog.DiscardHandler), g)

	assert.Equal(t, []string{}, s.Suggest(context.Background(), "São Paulo", "SP", "  "))
	assert.Nil(t, g.req)
	assert.Equal(t, []string{}, s.Suggest(context.Background(), "São Paulo", "SP", "vila"))
}
