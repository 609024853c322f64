// Package timerange turns period shorthands into closed UTC intervals.
package timerange

import (
	"time"

	"gcalctl/internal/apperr"
)

// Period tokens.
const (
	Day   = "d"
	Week  = "w"
	Month = "m"
)

// Range is a closed interval [Start, End] in UTC.
type Range struct {
	Start time.Time
	End   time.Time
}

// For resolves token relative to now. Each range ends one second before the
// next period boundary; weeks start on Monday.
func For(token string, now time.Time) (Range, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start, next time.Time
	switch token {
	case Day:
		start = today
		next = start.AddDate(0, 0, 1)
	case Week:
		// time.Weekday counts from Sunday; shift so Monday is 0.
		offset := (int(today.Weekday()) + 6) % 7
		start = today.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case Month:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(0, 1, 0)
	default:
		return Range{}, apperr.Newf(apperr.CodeInvalidPeriodToken,
			"invalid period %q: use %q for today, %q for this week or %q for this month", token, Day, Week, Month)
	}

	return Range{Start: start, End: next.Add(-time.Second)}, nil
}
