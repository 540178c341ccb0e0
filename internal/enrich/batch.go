package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shanehull/botleads/internal/model"
)

const batchParallelism = 4

// All runs e over every lead without a phone and returns a new slice in the
// same order. A lead whose enrichment fails is kept as it was. The input
// slice is not modified.
func All(ctx context.Context, logger *slog.Logger, e Enricher, leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	copy(out, leads)
	if e == nil {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)
	for i, l := range leads {
		if l.HasPhone() {
			continue
		}
		g.Go(func() error {
			enriched, err := e.Enrich(gctx, l)
			if err != nil {
				logger.Warn("Enrichment failed", "name", l.Name, "err", err)
				return nil
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	found := 0
	for i := range out {
		if out[i].HasPhone() && !leads[i].HasPhone() {
			found++
		}
	}
	if found > 0 {
		logger.Info("Enrichment complete", "phones_found", found)
	}
	return out
}
