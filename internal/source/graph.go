package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/extract"
)

const (
	graphSearchTimeout = 30 * time.Second
	graphLookupTimeout = 10 * time.Second
	graphPageLimit     = 50
)

// GraphClient talks to the Facebook Graph API, which serves both the page
// search and the Instagram business account lookups.
type GraphClient struct {
	baseURL string
	token   string
	search  *http.Client
	lookup  *http.Client
}

func NewGraphClient(baseURL, token string) (*GraphClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Config("FACEBOOK_ACCESS_TOKEN is required for the Graph API searchers")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, apperr.Config("graph API base URL is required")
	}
	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		search:  &http.Client{Timeout: graphSearchTimeout},
		lookup:  &http.Client{Timeout: graphLookupTimeout},
	}, nil
}

// SearchPages runs a single page search and returns the raw "data" items.
func (c *GraphClient) SearchPages(ctx context.Context, query string, fields []string) ([]extract.Payload, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "page")
	params.Set("fields", strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(graphPageLimit))

	body, err := c.get(ctx, c.search, "/search", params)
	if err != nil {
		return nil, err
	}
	items, ok := body.Objects("data")
	if !ok {
		return nil, apperr.New(apperr.KindUpstream, "graph search response has no data list")
	}
	return items, nil
}

// Lookup fetches one node, e.g. an Instagram business account.
func (c *GraphClient) Lookup(ctx context.Context, id string, fields []string) (extract.Payload, error) {
	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	return c.get(ctx, c.lookup, "/"+url.PathEscape(id), params)
}

func (c *GraphClient) get(ctx context.Context, client *http.Client, path string, params url.Values) (extract.Payload, error) {
	params.Set("access_token", c.token)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// the URL carries the token, keep it out of logs
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, apperr.Wrap(apperr.KindUpstream, "graph request "+path, uerr.Err)
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "graph request "+path, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("graph %s: decode (status %d)", path, resp.StatusCode), err)
	}
	body := extract.Payload(raw)

	if gerr := graphErrorFrom(resp.StatusCode, body); gerr != nil {
		return nil, gerr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("graph %s returned status %d", path, resp.StatusCode))
	}
	return body, nil
}

func graphErrorFrom(status int, body extract.Payload) error {
	e, ok := body.Object("error")
	if !ok {
		return nil
	}
	msg := e.StringOr("message", "unknown error")
	typ := e.StringOr("type", "")
	kind := apperr.KindUpstream
	if status == http.StatusUnauthorized || status == http.StatusForbidden || strings.EqualFold(typ, "OAuthException") {
		kind = apperr.KindDenied
	}
	return apperr.New(kind, fmt.Sprintf("graph API error (%s, status %d): %s", typ, status, msg))
}
