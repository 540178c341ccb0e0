package extract

import "strings"

// NormalizeAddress joins street, city, state, "CEP <zip>" and country, in that
// order, skipping the missing ones. When none are present it returns fallback
// unchanged.
func NormalizeAddress(location Payload, fallback string) string {
	var parts []string

	if street, ok := location.String("street"); ok {
		parts = append(parts, street)
	}
	if city, ok := location.String("city"); ok {
		parts = append(parts, city)
	}
	if state, ok := location.FirstString("state", "region"); ok {
		parts = append(parts, state)
	}
	if zip, ok := location.FirstString("zip", "postal_code"); ok {
		parts = append(parts, "CEP "+zip)
	}
	if country, ok := location.String("country"); ok {
		parts = append(parts, country)
	}

	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

// ItemAddress normalizes the "location" object of a page item.
func ItemAddress(item Payload, fallback string) string {
	location, _ := item.Object("location")
	return NormalizeAddress(location, fallback)
}
