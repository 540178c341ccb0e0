// Package geo serves the Brazilian geography the search form needs: states and
// municipalities from IBGE, and best-effort neighborhood suggestions.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/textutil"
)

const ibgeTimeout = 10 * time.Second

type State struct {
	ID     int    `json:"id"`
	Name   string `json:"nome"`
	Abbrev string `json:"sigla"`
}

type Municipality struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// IBGEClient reads the IBGE localidades API.
type IBGEClient struct {
	baseURL string
	client  *http.Client
}

func NewIBGEClient(baseURL string) *IBGEClient {
	return &IBGEClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: ibgeTimeout},
	}
}

// States returns every state sorted by name.
func (c *IBGEClient) States(ctx context.Context) ([]State, error) {
	var states []State
	if err := c.get(ctx, "/estados", &states); err != nil {
		return nil, err
	}
	sort.Slice(states, func(i, j int) bool {
		return collateLess(states[i].Name, states[j].Name)
	})
	return states, nil
}

func (c *IBGEClient) Municipalities(ctx context.Context, stateID int) ([]Municipality, error) {
	var ms []Municipality
	if err := c.get(ctx, "/estados/"+strconv.Itoa(stateID)+"/municipios", &ms); err != nil {
		return nil, err
	}
	sort.Slice(ms, func(i, j int) bool {
		return collateLess(ms[i].Name, ms[j].Name)
	})
	return ms, nil
}

// MunicipalitiesByAbbrev resolves a UF such as "SP" to its IBGE id first.
func (c *IBGEClient) MunicipalitiesByAbbrev(ctx context.Context, abbrev string) ([]Municipality, error) {
	states, err := c.States(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range states {
		if strings.EqualFold(s.Abbrev, strings.TrimSpace(abbrev)) {
			return c.Municipalities(ctx, s.ID)
		}
	}
	return nil, apperr.NotFound("Estado não encontrado")
}

func (c *IBGEClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "ibge request", err).WithOp("ibge " + path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperr.New(apperr.KindUpstream, fmt.Sprintf("IBGE API returned status %d", resp.StatusCode)).WithOp("ibge " + path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "failed to decode IBGE JSON", err).WithOp("ibge " + path)
	}
	return nil
}

// collateLess orders "Águas Lindas" next to "Aguaí" instead of after "Xique-Xique".
func collateLess(a, b string) bool {
	fa, fb := textutil.Fold(a), textutil.Fold(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}
