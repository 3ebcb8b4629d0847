// Package parser validates extracted candidates and converts them into
// typed records.
package parser

import (
	"strconv"

	"github.com/aluiziolira/go-crawl-books/models"
)

// IsComplete reports whether the candidate carries every required field
// with a usable value: the key present, the value non-nil, and strings
// non-empty. Numeric zero and boolean false are legitimate values, so
// only strings get the emptiness check. A nil candidate (malformed
// extraction output) is never complete.
func IsComplete(c models.Candidate, required []string) bool {
	if c == nil {
		return false
	}
	for _, field := range required {
		v, ok := c[field]
		if !ok || v == nil {
			return false
		}
		if s, isStr := v.(string); isStr && s == "" {
			return false
		}
	}
	return true
}

// BookFromCandidate converts a complete candidate into a Book. The
// conversion is total: values that do not parse as their declared type
// fall back to the schema defaults (0.0 rating, 0 reviews, "" strings).
func BookFromCandidate(c models.Candidate) *models.Book {
	return &models.Book{
		Name:        asString(c["name"]),
		Author:      asString(c["author"]),
		Publisher:   asString(c["publisher"]),
		PubDate:     asString(c["pub_date"]),
		Rating:      asFloat(c["rating"]),
		Reviews:     asInt(c["reviews"]),
		Description: asString(c["description"]),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return 0.0
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int(f)
		}
	}
	return 0
}
