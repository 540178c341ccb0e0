package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/shanehull/botleads/internal/extract"
	"github.com/shanehull/botleads/internal/model"
)

const (
	websiteTimeout = 15 * time.Second
	maxRedirects   = 10
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// profile hosts are not business websites, scraping them only returns login walls
var profileHosts = []string{"facebook.com", "instagram.com", "google.com", "goo.gl"}

// WebsiteEnricher looks for a phone number on the lead's own website when no
// upstream returned one.
type WebsiteEnricher struct {
	logger  *slog.Logger
	timeout time.Duration
}

func NewWebsiteEnricher(logger *slog.Logger) *WebsiteEnricher {
	return &WebsiteEnricher{
		logger:  logger.With("enricher", "website"),
		timeout: websiteTimeout,
	}
}

func (e *WebsiteEnricher) Enrich(ctx context.Context, lead model.Lead) (model.Lead, error) {
	if lead.HasPhone() {
		return lead, nil
	}
	site, ok := websiteOf(lead.ProfileLink)
	if !ok {
		return lead, nil
	}

	phone, err := e.scrape(ctx, site)
	if err != nil {
		return lead, fmt.Errorf("scrape %s: %w", site.Host, err)
	}
	if phone == "" {
		e.logger.Debug("No phone on website", "url", site.String())
		return lead, nil
	}

	e.logger.Info("Phone found on website", "lead", lead.Name, "url", site.String())
	return lead.WithPhone(phone), nil
}

func (e *WebsiteEnricher) scrape(ctx context.Context, site *url.URL) (string, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(e.timeout)
	// bare domains commonly redirect to www. or another host; only social
	// profiles are refused
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if isProfileHost(req.URL.Hostname()) {
			return fmt.Errorf("redirected to profile host %s", req.URL.Hostname())
		}
		return nil
	})

	var phone string
	c.OnHTML("html", func(el *colly.HTMLElement) {
		if phone == "" {
			phone = phoneFromPage(el.DOM)
		}
	})

	if err := c.Visit(site.String()); err != nil && !errors.As(err, new(*colly.AlreadyVisitedError)) {
		return "", err
	}
	c.Wait()
	return phone, nil
}

// phoneFromPage trusts tel: links over anything found in the visible text.
func phoneFromPage(doc *goquery.Selection) string {
	var phone string
	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		phone = strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
		return phone == ""
	})
	if phone != "" {
		return phone
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if found, ok := extract.FindPhone(text); ok {
		return found
	}
	return ""
}

// websiteOf accepts http(s) links that do not point at a social profile.
func websiteOf(link string) (*url.URL, bool) {
	if link == "" {
		return nil, false
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, false
	}
	if isProfileHost(u.Hostname()) {
		return nil, false
	}
	return u, true
}

func isProfileHost(host string) bool {
	host = strings.ToLower(host)
	for _, p := range profileHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}
