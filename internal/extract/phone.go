package extract

import (
	"regexp"
	"strings"
)

// phonePattern is deliberately loose: Brazilian numbers show up as
// "+55 (11) 98888-7777", "11 3333.4444", "988887777" and so on.
// Groups: country code, area code (with or without parentheses), prefix, line.
var phonePattern = regexp.MustCompile(`(\+?\d{1,3})?[-.\s]?(?:\((\d{2,3})\)|(\d{2,3}))?[-.\s]?(\d{4,5})[-.\s]?(\d{4})`)

// ExtractPhone prefers the structured "phone" field and falls back to the
// first number found in the "about" text.
func ExtractPhone(item Payload) (string, bool) {
	if raw, ok := item["phone"].(string); ok && strings.TrimSpace(raw) != "" {
		return raw, true
	}
	if phone, ok := item.String("phone"); ok {
		return phone, true
	}
	about, ok := item.String("about")
	if !ok {
		return "", false
	}
	return FindPhone(about)
}

// FindPhone returns the first phone-looking sequence in text as its captured
// digit groups joined left to right.
func FindPhone(text string) (string, bool) {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	var b strings.Builder
	for _, g := range m[1:] {
		b.WriteString(g)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}
