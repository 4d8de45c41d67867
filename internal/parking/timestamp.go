package parking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts tried before the day-first fallback. Layouts without a zone are
// read in the operator's location.
var directLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// D/M/YY[YY] or D-M-YY[YY], optionally followed by HH:MM[:SS].
var dayFirstPattern = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})(?:[ T,]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)

// Browser Date.toString() output carries a trailing zone name in brackets.
var zoneNameSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// ParseTimestamp resolves a sensor or operator timestamp to an instant. The
// second result is false when no recognised format matches; such records
// must be left out of every time-based computation.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	candidate := zoneNameSuffix.ReplaceAllString(raw, "")
	for _, layout := range directLayouts {
		if t, err := time.ParseInLocation(layout, candidate, loc); err == nil {
			return t, true
		}
	}

	return parseDayFirst(raw, loc)
}

func parseDayFirst(raw string, loc *time.Location) (time.Time, bool) {
	m := dayFirstPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	var hour, minute, second int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), true
}
