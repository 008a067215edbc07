package service

import (
	"fmt"
	"strings"
	"time"
)

// WireTimeFormat is the ISO-8601 form deadlines are sent in.
const WireTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// localLayouts are the accepted forms without a zone, interpreted in the
// caller's location. The first matches an HTML datetime-local input.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline converts user input into an absolute point in time.
// RFC 3339 input keeps its own offset; anything else is read in loc.
func ParseDeadline(input string, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, invalidInput("deadline must not be empty")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidInput(fmt.Sprintf("unrecognized deadline: %q", input))
}

// FormatDeadline renders t in UTC with millisecond precision.
func FormatDeadline(t time.Time) string {
	return t.UTC().Format(WireTimeFormat)
}
