package source

import (
	"log/slog"

	"github.com/shanehull/botleads/internal/model"
)

type itemStatus int

const (
	itemBuilt itemStatus = iota
	// itemNoPhone was dropped by the phone-required filter.
	itemNoPhone
	// itemNoMatch is not a candidate for this source at all.
	itemNoMatch
	itemFailed
)

// itemOutcome is what happened to one raw upstream result.
type itemOutcome struct {
	status itemStatus
	lead   model.Lead
	err    error
}

func built(l model.Lead) itemOutcome { return itemOutcome{status: itemBuilt, lead: l} }
func droppedNoPhone() itemOutcome { return itemOutcome{status: itemNoPhone} }
func noMatch() itemOutcome { return itemOutcome{status: itemNoMatch} }
func failed(err error) itemOutcome { return itemOutcome{status: itemFailed, err: err} }

type stats struct {
	Found, Kept, NoPhone, Skipped, Failed int
}

// add tallies o and appends its lead when one was built.
func (s *stats) add(leads []model.Lead, o itemOutcome) []model.Lead {
	s.Found++
	switch o.status {
	case itemBuilt:
		s.Kept++
		return append(leads, o.lead)
	case itemNoPhone:
		s.NoPhone++
	case itemNoMatch:
		s.Skipped++
	case itemFailed:
		s.Failed++
	}
	return leads
}

func (s *stats) log(logger *slog.Logger) {
	logger.Info("Search complete",
		"found", s.Found,
		"kept", s.Kept,
		"no_phone", s.NoPhone,
		"skipped", s.Skipped,
		"failed", s.Failed)
}
