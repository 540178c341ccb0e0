package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/enrich"
	"github.com/shanehull/botleads/internal/export"
	"github.com/shanehull/botleads/internal/model"
)

// leadJSON keeps the field names the web client has always read.
type leadJSON struct {
	Name        string  `json:"nome"`
	Address     string  `json:"endereco"`
	Phone       string  `json:"telefone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Category    string  `json:"tipo"`
	Source      string  `json:"fonte"`
	ProfileLink string  `json:"link_perfil,omitempty"`
}

func toJSON(l model.Lead) leadJSON {
	return leadJSON{
		Name:        l.Name,
		Address:     l.Address,
		Phone:       l.PhoneOrNA(),
		Latitude:    l.Latitude,
		Longitude:   l.Longitude,
		Category:    l.Category,
		Source:      l.Source.String(),
		ProfileLink: l.ProfileLink,
	}
}

func (j leadJSON) toLead() model.Lead {
	phone := j.Phone
	if phone == model.NotAvailable {
		phone = ""
	}
	return model.NewLead(model.LeadParams{
		Name:        j.Name,
		Address:     j.Address,
		Phone:       phone,
		Latitude:    j.Latitude,
		Longitude:   j.Longitude,
		Category:    j.Category,
		Source:      model.Source(j.Source),
		ProfileLink: j.ProfileLink,
	})
}

type searchRequest struct {
	State         string   `json:"estado"`
	Municipality  string   `json:"municipio"`
	Neighborhood  string   `json:"bairro"`
	Category      string   `json:"tipo"`
	PhoneRequired bool     `json:"apenas_com_telefone"`
	Source        string   `json:"fonte"`
	Sources       []string `json:"fontes"`
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Corpo da requisição inválido"))
		return
	}

	q := model.Query{
		State:         req.State,
		Municipality:  req.Municipality,
		Neighborhood:  req.Neighborhood,
		Category:      req.Category,
		PhoneRequired: req.PhoneRequired,
	}

	ctx := c.Request.Context()
	var (
		leads []model.Lead
		err   error
	)
	switch {
	case len(req.Sources) > 0:
		srcs, perr := parseSources(req.Sources)
		if perr != nil {
			writeError(c, perr)
			return
		}
		leads, err = s.deps.Search.SearchAll(ctx, q, srcs...)
	case isAllSources(req.Source):
		leads, err = s.deps.Search.SearchAll(ctx, q)
	default:
		src, perr := parseSource(req.Source)
		if perr != nil {
			writeError(c, perr)
			return
		}
		leads, err = s.deps.Search.Search(ctx, q, src)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if s.deps.Enricher != nil {
		leads = enrich.All(ctx, s.logger, s.deps.Enricher, leads)
	}

	resp := gin.H{"sucesso": true, "total": len(leads), "leads": leadsJSON(leads)}
	if runID, ok := s.archive(c, q, leads); ok {
		resp["run_id"] = runID
	}
	c.JSON(http.StatusOK, resp)
}

func isAllSources(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.EqualFold(raw, "all") || strings.EqualFold(raw, "todas")
}

func parseSource(raw string) (model.Source, error) {
	src, err := model.ParseSource(raw)
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("Fonte desconhecida: %s", raw))
	}
	return src, nil
}

func parseSources(raw []string) ([]model.Source, error) {
	srcs := make([]model.Source, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		src, err := parseSource(r)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

// archive saves the run when an archive is configured. Failures are logged
// and never fail the search.
func (s *Server) archive(c *gin.Context, q model.Query, leads []model.Lead) (string, bool) {
	if s.deps.Archive == nil || len(leads) == 0 {
		return "", false
	}
	runID := uuid.NewString()
	if _, err := s.deps.Archive.SaveRun(c.Request.Context(), runID, q.Trimmed(), leads); err != nil {
		s.logger.Error("Archive save failed", "run_id", runID, "err", err, "request_id", c.GetString(requestIDKey))
		return "", false
	}
	return runID, true
}

func (s *Server) states(c *gin.Context) {
	states, err := s.deps.Geography.States(c.Request.Context())
	if err != nil {
		writeError(c, apperr.Wrap(apperr.GetKind(err), "Erro ao buscar estados", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true, "estados": states})
}

func (s *Server) municipalities(c *gin.Context) {
	rawID := strings.TrimSpace(c.Query("estado_id"))
	abbrev := strings.TrimSpace(c.Query("estado_sigla"))

	ctx := c.Request.Context()
	var err error
	var result any
	switch {
	case rawID != "":
		id, convErr := strconv.Atoi(rawID)
		if convErr != nil {
			writeError(c, apperr.Validation("Parâmetro estado_id inválido"))
			return
		}
		result, err = s.deps.Geography.Municipalities(ctx, id)
	case abbrev != "":
		result, err = s.deps.Geography.MunicipalitiesByAbbrev(ctx, abbrev)
	default:
		writeError(c, apperr.Validation("Parâmetro estado_id ou estado_sigla é obrigatório"))
		return
	}
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			err = apperr.Wrap(apperr.GetKind(err), "Erro ao buscar municípios", err)
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true, "municipios": result})
}

type neighborhoodRequest struct {
	Municipality string `json:"municipio"`
	State        string `json:"estado"`
	Query        string `json:"query"`
}

func (s *Server) neighborhoods(c *gin.Context) {
	var req neighborhoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Corpo da requisição inválido"))
		return
	}
	if strings.TrimSpace(req.Municipality) == "" {
		writeError(c, apperr.Validation("Município é obrigatório"))
		return
	}

	names := []string{}
	if s.deps.Neighborhoods != nil {
		names = s.deps.Neighborhoods.Suggest(c.Request.Context(),
			strings.TrimSpace(req.Municipality), strings.TrimSpace(req.State), req.Query)
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true, "bairros": names})
}

type exportRequest struct {
	Leads []leadJSON `json:"leads"`
}

func (s *Server) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("Corpo da requisição inválido"))
		return
	}
	if len(req.Leads) == 0 {
		writeError(c, apperr.Validation("Nenhum lead para exportar"))
		return
	}

	leads := make([]model.Lead, len(req.Leads))
	for i, l := range req.Leads {
		leads[i] = l.toLead()
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, leads); err != nil {
		writeError(c, apperr.Wrap(apperr.KindUnknown, "Erro ao exportar Excel", err))
		return
	}

	filename := export.Filename(s.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// neighborhoodHint answers the plain GET with an empty list; suggestions
// need a typed query and come from POST /api/buscar-bairros.
func (s *Server) neighborhoodHint(c *gin.Context) {
	if strings.TrimSpace(c.Query("municipio")) == "" {
		writeError(c, apperr.Validation("Parâmetro municipio é obrigatório"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true, "bairros": []string{}, "mensagem": "Digite o nome do bairro para buscar"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API está funcionando"})
}

func leadsJSON(leads []model.Lead) []leadJSON {
	out := make([]leadJSON, len(leads))
	for i, l := range leads {
		out[i] = toJSON(l)
	}
	return out
}

func writeError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		if e.HTTPStatus() >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{"erro": e.Message})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno do servidor"})
}
