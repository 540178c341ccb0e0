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

var instagramFields = []string{"name", "location", "phone", "link", "website", "about", "instagram_business_account"}

// InstagramSearcher finds Facebook pages that have an Instagram business
// account attached. Pages without one are not candidates.
type InstagramSearcher struct {
	logger *slog.Logger
	graph  GraphAPI
}

func NewInstagramSearcher(logger *slog.Logger, graph GraphAPI) (*InstagramSearcher, error) {
	if graph == nil {
		return nil, apperr.Config("graph API client is required for the Instagram searcher")
	}
	return &InstagramSearcher{logger: logger, graph: graph}, nil
}

func (s *InstagramSearcher) Name() string { return "Instagram" }

func (s *InstagramSearcher) Source() model.Source { return model.SourceInstagram }

func (s *InstagramSearcher) Search(ctx context.Context, q model.Query) []model.Lead {
	query := fmt.Sprintf("%s in %s", q.Category, q.LocationPhrase())
	logger := s.logger.With("query", query)
	logger.Info("Searching Instagram business accounts")

	return searchGraph(ctx, logger, s.graph, query, instagramFields, func(item extract.Payload) itemOutcome {
		return s.account(ctx, logger, item, q)
	})
}

func (s *InstagramSearcher) account(ctx context.Context, logger *slog.Logger, item extract.Payload, q model.Query) itemOutcome {
	if !item.Has("instagram_business_account") {
		return noMatch()
	}
	account, _ := item.Object("instagram_business_account")

	phone, hasPhone := extract.ExtractPhone(item)
	if q.PhoneRequired && !hasPhone {
		return droppedNoPhone()
	}

	name := item.StringOr("name", model.NotAvailable)
	location, _ := item.Object("location")
	lat, lng := location.Coordinates("latitude", "longitude")

	return built(model.NewLead(model.LeadParams{
		Name:        name,
		Address:     extract.NormalizeAddress(location, q.LocationPhrase()),
		Phone:       phone,
		Latitude:    lat,
		Longitude:   lng,
		Category:    q.Category,
		Source:      model.SourceInstagram,
		ProfileLink: s.profileLink(ctx, logger, account, item, name),
	}))
}

// profileLink prefers the account handle, then the page's own link or
// website, then a URL guessed from the page name.
func (s *InstagramSearcher) profileLink(ctx context.Context, logger *slog.Logger, account, item extract.Payload, name string) string {
	if id, ok := account.String("id"); ok {
		resp, err := s.graph.Lookup(ctx, id, []string{"username"})
		if err == nil {
			if username, ok := resp.String("username"); ok {
				return fmt.Sprintf("https://www.instagram.com/%s/", username)
			}
		} else {
			logger.Debug("Account lookup failed", "account_id", id, "err", err)
		}
	}
	if link, ok := item.FirstString("link", "website"); ok {
		return link
	}
	return fmt.Sprintf("https://www.instagram.com/%s/", textutil.Slug(name, ""))
}
