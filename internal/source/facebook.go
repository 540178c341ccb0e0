package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/extract"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/textutil"
)

// GraphAPI is what the Facebook and Instagram searchers need from the Graph
// API. *GraphClient implements it.
type GraphAPI interface {
	SearchPages(ctx context.Context, query string, fields []string) ([]extract.Payload, error)
	Lookup(ctx context.Context, id string, fields []string) (extract.Payload, error)
}

var _ GraphAPI = (*GraphClient)(nil)

var facebookFields = []string{"name", "location", "phone", "link", "website", "about", "category"}

// graphPermissions are listed in the denial diagnostic for both Graph searchers.
var graphPermissions = []string{"pages_read_engagement", "Page Public Metadata Access", "instagram_basic"}

type FacebookSearcher struct {
	logger *slog.Logger
	graph  GraphAPI
}

func NewFacebookSearcher(logger *slog.Logger, graph GraphAPI) (*FacebookSearcher, error) {
	if graph == nil {
		return nil, apperr.Config("graph API client is required for the Facebook searcher")
	}
	return &FacebookSearcher{logger: logger, graph: graph}, nil
}

func (s *FacebookSearcher) Name() string { return "Facebook" }

func (s *FacebookSearcher) Source() model.Source { return model.SourceFacebook }

func (s *FacebookSearcher) Search(ctx context.Context, q model.Query) []model.Lead {
	query := fmt.Sprintf("%s in %s", q.Category, q.LocationPhrase())
	logger := s.logger.With("query", query)
	logger.Info("Searching Facebook pages")

	return searchGraph(ctx, logger, s.graph, query, facebookFields, func(item extract.Payload) itemOutcome {
		return s.page(item, q)
	})
}

func (s *FacebookSearcher) page(item extract.Payload, q model.Query) itemOutcome {
	phone, hasPhone := extract.ExtractPhone(item)
	if q.PhoneRequired && !hasPhone {
		return droppedNoPhone()
	}

	name := item.StringOr("name", model.NotAvailable)
	link, ok := item.FirstString("link", "website")
	if !ok {
		link = "https://www.facebook.com/" + textutil.Slug(name, "-")
	}

	location, _ := item.Object("location")
	lat, lng := location.Coordinates("latitude", "longitude")

	return built(model.NewLead(model.LeadParams{
		Name:        name,
		Address:     extract.NormalizeAddress(location, q.LocationPhrase()),
		Phone:       phone,
		Latitude:    lat,
		Longitude:   lng,
		Category:    q.Category,
		Source:      model.SourceFacebook,
		ProfileLink: link,
	}))
}

// searchGraph runs the single page search shared by the Graph searchers. A
// failed search yields no leads; each item goes through build on its own.
func searchGraph(ctx context.Context, logger *slog.Logger, graph GraphAPI, query string, fields []string, build func(extract.Payload) itemOutcome) []model.Lead {
	leads := []model.Lead{}

	items, err := graph.SearchPages(ctx, query, fields)
	if err != nil {
		logger.Error("Graph search failed", "err", err)
		if apperr.IsDenied(err) {
			reportDenied(logger, "Facebook Graph", graphExplorerURL, graphPermissions, err)
		}
		return leads
	}

	st := &stats{}
	for i, item := range items {
		out := buildSafely(item, build)
		if out.status == itemFailed {
			logger.Warn("Skipping item", "index", i, "err", out.err)
		}
		leads = st.add(leads, out)
	}
	st.log(logger)
	return leads
}

// buildSafely turns a panic on an unexpected item shape into a failed outcome.
func buildSafely(item extract.Payload, build func(extract.Payload) itemOutcome) (out itemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Errorf("malformed item: %v", r))
		}
	}()
	return build(item)
}
