package storage

import (
	"context"

	"github.com/shanehull/botleads/internal/model"
)

// Repository archives search results between runs. The search path itself
// never reads from it.
type Repository interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, runID string, q model.Query, leads []model.Lead) (int, error)
	ListLeads(ctx context.Context, f Filter) ([]model.Lead, error)
	ExportCSV(ctx context.Context, path string, f Filter) error
	DeleteByFilter(ctx context.Context, f Filter) (int64, error)
	Close() error
}
