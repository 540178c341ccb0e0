package source

import (
	"context"

	"github.com/shanehull/botleads/internal/model"
)

// Searcher turns one query into leads from a single upstream directory.
// Search never fails: upstream and per-item problems are logged and the
// leads gathered so far are returned.
type Searcher interface {
	Name() string
	Source() model.Source
	Search(ctx context.Context, q model.Query) []model.Lead
}
