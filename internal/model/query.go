package model

import (
	"fmt"
	"strings"
)

const country = "Brasil"

// Query is the per-call search input. It has no identity and is never cached.
type Query struct {
	State         string
	Municipality  string
	Neighborhood  string // optional
	Category      string
	PhoneRequired bool
}

// LocationPhrase is "{neighborhood}, {municipality}, {state}, Brasil", without the
// neighborhood when none was given.
func (q Query) LocationPhrase() string {
	if n := strings.TrimSpace(q.Neighborhood); n != "" {
		return fmt.Sprintf("%s, %s, %s, %s", n, q.Municipality, q.State, country)
	}
	return fmt.Sprintf("%s, %s, %s", q.Municipality, q.State, country)
}

// CityPhrase drops the neighborhood regardless of whether one was given.
func (q Query) CityPhrase() string {
	return fmt.Sprintf("%s, %s, %s", q.Municipality, q.State, country)
}

// Missing lists the required fields that are blank, in display order.
func (q Query) Missing() []string {
	var missing []string
	if strings.TrimSpace(q.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(q.Municipality) == "" {
		missing = append(missing, "municipality")
	}
	if strings.TrimSpace(q.Category) == "" {
		missing = append(missing, "category")
	}
	return missing
}

func (q Query) Trimmed() Query {
	return Query{
		State:         strings.TrimSpace(q.State),
		Municipality:  strings.TrimSpace(q.Municipality),
		Neighborhood:  strings.TrimSpace(q.Neighborhood),
		Category:      strings.TrimSpace(q.Category),
		PhoneRequired: q.PhoneRequired,
	}
}
