package enrich

import (
	"context"

	"github.com/shanehull/botleads/internal/model"
)

// Enricher fills in missing lead fields from a secondary source. It returns
// a copy; the lead passed in is left untouched.
type Enricher interface {
	Enrich(ctx context.Context, lead model.Lead) (model.Lead, error)
}
