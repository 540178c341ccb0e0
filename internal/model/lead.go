package model

import (
	"fmt"
	"strings"
)

// NotAvailable is stored when an upstream omits a required field.
const NotAvailable = "N/A"

type Source string

const (
	SourceGoogleMaps Source = "Google Maps"
	SourceFacebook   Source = "Facebook"
	SourceInstagram  Source = "Instagram"
)

func (s Source) String() string { return string(s) }

// ParseSource accepts the display name or a short key ("maps", "facebook", "fb", "instagram", "ig").
func ParseSource(raw string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "maps", "google", "google maps", "google_maps", "googlemaps", "gmaps":
		return SourceGoogleMaps, nil
	case "facebook", "fb":
		return SourceFacebook, nil
	case "instagram", "ig":
		return SourceInstagram, nil
	}
	return "", fmt.Errorf("unknown source %q", raw)
}

// Lead is a normalized business record. Build it with NewLead and treat it as a value:
// enrichment returns a modified copy, never mutates in place.
type Lead struct {
	Name        string
	Address     string
	Phone       string // empty when no phone was resolved
	Latitude    float64
	Longitude   float64 // 0,0 means unknown
	Category    string  // echo of the requested category
	Source      Source
	ProfileLink string
}

type LeadParams struct {
	Name        string
	Address     string
	Phone       string
	Latitude    float64
	Longitude   float64
	Category    string
	Source      Source
	ProfileLink string
}

func NewLead(p LeadParams) Lead {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = NotAvailable
	}
	address := strings.TrimSpace(p.Address)
	if address == "" {
		address = NotAvailable
	}
	return Lead{
		Name:        name,
		Address:     address,
		Phone:       strings.TrimSpace(p.Phone),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Category:    p.Category,
		Source:      p.Source,
		ProfileLink: strings.TrimSpace(p.ProfileLink),
	}
}

func (l Lead) HasPhone() bool { return l.Phone != "" }

func (l Lead) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// WithPhone returns a copy carrying phone. An already resolved phone is kept.
func (l Lead) WithPhone(phone string) Lead {
	phone = strings.TrimSpace(phone)
	if l.Phone != "" || phone == "" {
		return l
	}
	l.Phone = phone
	return l
}

// PhoneOrNA is the display form used by the CLI, the API and the spreadsheet export.
func (l Lead) PhoneOrNA() string {
	if l.Phone == "" {
		return NotAvailable
	}
	return l.Phone
}
