package storage

import (
	"fmt"
	"strings"
)

// Filter narrows archived leads. Zero fields match everything.
type Filter struct {
	Name         string
	State        string
	Municipality string
	Category     string
	Source       string
	RunID        string
	WithPhone    bool
}

func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// where renders the conditions. bind turns a value into SQL, either a "?"
// placeholder or an inline literal.
func (f Filter) where(bind func(v string) string) string {
	var conds []string
	eqFold := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			conds = append(conds, fmt.Sprintf("lower(%s) = %s", col, bind(strings.ToLower(v))))
		}
	}
	eqFold("name", f.Name)
	eqFold("state", f.State)
	eqFold("municipality", f.Municipality)
	eqFold("category", f.Category)
	eqFold("source", f.Source)
	if id := strings.TrimSpace(f.RunID); id != "" {
		conds = append(conds, "run_id = "+bind(id))
	}
	if f.WithPhone {
		conds = append(conds, "phone IS NOT NULL")
	}
	if len(conds) == 0 {
		return "TRUE"
	}
	return strings.Join(conds, " AND ")
}

// params binds every value as a positional parameter.
func (f Filter) params() (string, []any) {
	var args []any
	clause := f.where(func(v string) string {
		args = append(args, v)
		return "?"
	})
	return clause, args
}

// literals inlines values for statements that cannot take parameters, such
// as COPY.
func (f Filter) literals() string {
	return f.where(quote)
}

func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
