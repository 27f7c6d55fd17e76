package schema

import (
	"strings"
	"time"
)

// Accepted datetime layouts, tried in order. Offset-less forms are
// interpreted in the supplied location; date-only values mark all-day
// semantics.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateOnlyLayout = "2006-01-02"

// ParseDateTime parses an ISO-8601/RFC3339-ish string. dateOnly reports
// whether the value carried no time component. A trailing "Z" and an
// explicit offset are both honored; otherwise loc anchors the instant.
func ParseDateTime(value string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	s := strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	if !strings.Contains(s, "T") && !strings.Contains(s, " ") {
		t, err = time.ParseInLocation(dateOnlyLayout, s, loc)
		return t, true, err
	}
	for _, layout := range datetimeLayouts {
		if layout == time.RFC3339 {
			if t, err = time.Parse(layout, s); err == nil {
				return t, false, nil
			}
			continue
		}
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, err
}

// FormatRFC3339 renders an instant the way the calendar backend expects.
func FormatRFC3339(t time.Time) string {
	return t.Format(time.RFC3339)
}

// FormatDate renders the date-only form used by all-day events.
func FormatDate(t time.Time) string {
	return t.Format(dateOnlyLayout)
}
