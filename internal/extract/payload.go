// Package extract turns loosely shaped upstream JSON into lead fields.
//
// Every accessor is total: a missing key, a null, or a value of the wrong
// type reports "absent" instead of failing.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Payload is one decoded JSON object.
type Payload map[string]any

// AsPayload converts an arbitrary decoded value into a Payload.
func AsPayload(v any) (Payload, bool) {
	switch m := v.(type) {
	case Payload:
		return m, m != nil
	case map[string]any:
		return Payload(m), m != nil
	}
	return nil, false
}

// Has reports whether key is present with a non-null value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the trimmed text under key. Numbers are formatted without
// exponent so numeric postal codes survive; anything else is absent.
func (p Payload) String(key string) (string, bool) {
	var s string
	switch v := p[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// StringOr returns the value under key, or def when absent.
func (p Payload) StringOr(key, def string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return def
}

// FirstString returns the first present value among keys.
func (p Payload) FirstString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p.String(k); ok {
			return s, true
		}
	}
	return "", false
}

func (p Payload) Object(key string) (Payload, bool) {
	return AsPayload(p[key])
}

// Float accepts JSON numbers and numeric strings.
func (p Payload) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Coordinates reads a latitude/longitude pair. Both must be present, otherwise
// the pair is reported as 0,0.
func (p Payload) Coordinates(latKey, lngKey string) (float64, float64) {
	lat, okLat := p.Float(latKey)
	lng, okLng := p.Float(lngKey)
	if !okLat || !okLng {
		return 0, 0
	}
	return lat, lng
}

// Objects returns the objects under key, skipping elements that are not objects.
func (p Payload) Objects(key string) ([]Payload, bool) {
	raw, ok := p[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Payload, 0, len(raw))
	for _, v := range raw {
		if obj, ok := AsPayload(v); ok {
			out = append(out, obj)
		}
	}
	return out, true
}
