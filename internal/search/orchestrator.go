// Package search routes a query to the configured lead sources.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shanehull/botleads/internal/apperr"
	"github.com/shanehull/botleads/internal/model"
	"github.com/shanehull/botleads/internal/source"
)

// requiredFields carries the user-facing message for each blank field
// reported by model.Query.Missing.
var requiredFields = map[string]string{
	"state":        "O campo Estado é obrigatório",
	"municipality": "O campo Município é obrigatório",
	"category":     "O campo Tipo de estabelecimento é obrigatório",
}

type Orchestrator struct {
	logger   *slog.Logger
	byName   map[model.Source]source.Searcher
	order    []model.Source
	fallback model.Source
}

type Option func(*Orchestrator)

// WithDefault picks the source used when a query names none. Google Maps
// unless overridden.
func WithDefault(src model.Source) Option {
	return func(o *Orchestrator) { o.fallback = src }
}

func New(logger *slog.Logger, searchers []source.Searcher, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		logger:   logger,
		byName:   make(map[model.Source]source.Searcher, len(searchers)),
		fallback: model.SourceGoogleMaps,
	}
	for _, s := range searchers {
		if _, dup := o.byName[s.Source()]; dup {
			return nil, apperr.Config(fmt.Sprintf("source %s configured twice", s.Source()))
		}
		o.byName[s.Source()] = s
		o.order = append(o.order, s.Source())
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.byName) == 0 {
		return nil, apperr.Config("no lead sources configured")
	}
	if _, ok := o.byName[o.fallback]; !ok {
		// unconfigured default: use the first registered source
		o.fallback = o.order[0]
	}
	return o, nil
}

// Sources lists the configured sources in registration order.
func (o *Orchestrator) Sources() []model.Source {
	return append([]model.Source(nil), o.order...)
}

func (o *Orchestrator) Default() model.Source { return o.fallback }

// Search runs q against a single source and returns its leads unchanged.
// An empty src means the default source.
func (o *Orchestrator) Search(ctx context.Context, q model.Query, src model.Source) ([]model.Lead, error) {
	q = q.Trimmed()
	if err := Validate(q); err != nil {
		return nil, err
	}
	s, err := o.searcher(src)
	if err != nil {
		return nil, err
	}

	leads := s.Search(ctx, q)
	o.logger.Info("Source returned", "source", s.Name(), "leads", len(leads))
	return leads, nil
}

// SearchAll queries each named source in turn, all of them when none are
// named, and concatenates the results in that order. Leads are not merged
// across sources.
func (o *Orchestrator) SearchAll(ctx context.Context, q model.Query, srcs ...model.Source) ([]model.Lead, error) {
	if len(srcs) == 0 {
		srcs = o.order
	}
	q = q.Trimmed()
	if err := Validate(q); err != nil {
		return nil, err
	}
	for _, src := range srcs {
		if _, err := o.searcher(src); err != nil {
			return nil, err
		}
	}

	all := []model.Lead{}
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		leads, err := o.Search(ctx, q, src)
		if err != nil {
			return all, err
		}
		all = append(all, leads...)
	}
	return all, nil
}

// Validate reports the first blank required field.
func Validate(q model.Query) error {
	if missing := q.Missing(); len(missing) > 0 {
		return apperr.Validation(requiredFields[missing[0]])
	}
	return nil
}

func (o *Orchestrator) searcher(src model.Source) (source.Searcher, error) {
	if src == "" {
		src = o.fallback
	}
	s, ok := o.byName[src]
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("Fonte não configurada: %s", src))
	}
	return s, nil
}

// ParseSources turns "maps,facebook" into sources. Blank entries are ignored.
func ParseSources(raw string) ([]model.Source, error) {
	var out []model.Source
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		src, err := model.ParseSource(part)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		out = append(out, src)
	}
	return out, nil
}
