package resource

import (
	"time"

	"gitlab.com/tozd/go/errors"
)

// Layouts accepted for datetime attributes, most specific first.
var w3cLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatW3C renders a timestamp as a W3C datetime in UTC, truncated to
// whole seconds. The zero time renders as the empty string so optional
// attributes can be omitted.
func FormatW3C(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ParseW3C parses a W3C datetime. The empty string yields the zero
// time without error.
func ParseW3C(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range w3cLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("parsing datetime %q", s)
}
