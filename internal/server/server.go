// Package server exposes lead search, geography lookups and spreadsheet
// export over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/shanehull/botleads/internal/enrich"
	"github.com/shanehull/botleads/internal/geo"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/storage"
)

// LeadSearcher is implemented by *search.Orchestrator.
type LeadSearcher interface {
	Search(ctx context.Context, q model.Query, src model.Source) ([]model.Lead, error)
	SearchAll(ctx context.Context, q model.Query, srcs ...model.Source) ([]model.Lead, error)
}

// Geography is implemented by *geo.IBGEClient.
type Geography interface {
	States(ctx context.Context) ([]geo.State, error)
	Municipalities(ctx context.Context, stateID int) ([]geo.Municipality, error)
	MunicipalitiesByAbbrev(ctx context.Context, abbrev string) ([]geo.Municipality, error)
}

type NeighborhoodSuggester interface {
	Suggest(ctx context.Context, municipality, state, query string) []string
}

// Deps are built once at startup. Archive, Enricher and Neighborhoods may
// be nil.
type Deps struct {
	Search        LeadSearcher
	Geography     Geography
	Neighborhoods NeighborhoodSuggester
	Enricher      enrich.Enricher
	Archive       storage.Repository
}

type Options struct {
	Production   bool
	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int
}

type Server struct {
	logger *slog.Logger
	deps   Deps
	engine *gin.Engine
	now    func() time.Time
}

func New(logger *slog.Logger, deps Deps, opts Options) *Server {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{logger: logger, deps: deps, now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	limiter := NewIPRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateBurst, logger)

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/estados", s.states)
	api.GET("/municipios", s.municipalities)
	api.GET("/bairros", s.neighborhoodHint)
	api.POST("/buscar-bairros", s.neighborhoods)
	api.POST("/buscar", limiter.RateLimit(), s.search)
	api.POST("/exportar-excel", s.export)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
