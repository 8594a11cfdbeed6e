// Package dateparse normalizes free-form date strings to calendar days.
package dateparse

import (
	"strings"
	"time"
)

// layouts is the fixed, ordered list of formats tried for every date
// string. Ambiguous day/month forms are resolved by trying day-month-year
// before month-day-year, per spec.md §9: "preserve verbatim" so a given
// input always resolves the same way across both the ledger and the
// statement table.
var layouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"2-1-06",
	"1/2/06",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05Z07:00",
}

var blankTokens = map[string]bool{
	"":      true,
	"nan":   true,
	"nat":   true,
	"none":  true,
	"null":  true,
	"n/a":   true,
	"na":    true,
	"-":     true,
	"0":     true,
	"00000": true,
}

// ParseDate parses value against the ordered layout list, returning the
// calendar day (time truncated, UTC) and whether parsing succeeded. A
// blank or recognizably-missing token yields (zero, false) without
// attempting a parse; this never fails loudly, matching spec.md §4.10.
func ParseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if blankTokens[strings.ToLower(s)] {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CalendarDay(t), true
		}
	}
	return time.Time{}, false
}

// CalendarDay truncates a time to midnight UTC on its calendar day, the
// granularity every date comparison in internal/reconcile operates on.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns b-a in whole calendar days (can be negative).
func DaysBetween(a, b time.Time) int {
	return int(CalendarDay(b).Sub(CalendarDay(a)).Hours() / 24)
}
