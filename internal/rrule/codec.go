// Package rrule encodes recurrence rules to and from the semicolon-delimited
// RRULE grammar and expands them into concrete occurrences.
package rrule

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"gcalctl/internal/apperr"
	"gcalctl/internal/model"
)

const (
	untilLayout     = "20060102T150405Z"
	untilDateLayout = "20060102"

	// LinePrefix introduces a rule inside a recurrence property list.
	LinePrefix = "RRULE:"
)

// Format serializes r. Components are always emitted in the order FREQ,
// INTERVAL, COUNT, UNTIL, BYDAY, BYMONTH, BYYEARDAY, BYHOUR and only when set.
func Format(r *model.RecurrenceRule) string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(strings.ToUpper(string(r.Freq)))

	if r.Interval > 0 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(r.Interval))
	}
	if r.Count > 0 {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(r.Count))
	}
	if !r.Until.IsZero() {
		b.WriteString(";UNTIL=")
		b.WriteString(r.Until.UTC().Format(untilLayout))
	}
	if len(r.ByDay) > 0 {
		b.WriteString(";BYDAY=")
		b.WriteString(strings.ToUpper(strings.Join(r.ByDay, ",")))
	}
	writeInts(&b, "BYMONTH", r.ByMonth)
	writeInts(&b, "BYYEARDAY", r.ByYearDay)
	writeInts(&b, "BYHOUR", r.ByHour)

	return b.String()
}

// FormatLine returns the rule as a recurrence property line ("RRULE:...").
func FormatLine(r *model.RecurrenceRule) string {
	return LinePrefix + Format(r)
}

func writeInts(b *strings.Builder, key string, values []int) {
	if len(values) == 0 {
		return
	}
	b.WriteString(";")
	b.WriteString(key)
	b.WriteString("=")
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.Itoa(v))
	}
}

// Parse reads a rule string, with or without the "RRULE:" prefix.
//
// Each ';'-separated component is split on its first '='. Unknown keys are
// ignored and empty components are skipped. INTERVAL defaults to 1 when
// absent. A component without '=', an unparsable value, a missing FREQ or a
// value outside the rule's ranges (INTERVAL=0, BYMONTH=13, an empty BYDAY)
// fails with MalformedRecurrenceRule, so every decoded rule re-encodes.
func Parse(s string) (*model.RecurrenceRule, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(LinePrefix) && strings.EqualFold(s[:len(LinePrefix)], LinePrefix) {
		s = s[len(LinePrefix):]
	}

	r := &model.RecurrenceRule{Interval: 1}
	sawFreq := false

	for _, comp := range strings.Split(s, ";") {
		comp = strings.TrimSpace(comp)
		if comp == "" {
			continue
		}
		key, value, ok := strings.Cut(comp, "=")
		if !ok {
			return nil, malformed(s, "component %q has no '='", comp)
		}

		var err error
		switch strings.ToUpper(key) {
		case "FREQ":
			f, known := model.ParseFrequency(value)
			if !known {
				return nil, malformed(s, "unknown FREQ %q", value)
			}
			r.Freq = f
			sawFreq = true
		case "INTERVAL":
			r.Interval, err = strconv.Atoi(value)
		case "COUNT":
			r.Count, err = strconv.Atoi(value)
		case "UNTIL":
			r.Until, err = parseUntil(value)
		case "BYDAY":
			r.ByDay = nil
			for _, d := range strings.Split(value, ",") {
				r.ByDay = append(r.ByDay, strings.ToUpper(strings.TrimSpace(d)))
			}
		case "BYMONTH":
			r.ByMonth, err = parseInts(value)
		case "BYYEARDAY":
			r.ByYearDay, err = parseInts(value)
		case "BYHOUR":
			r.ByHour, err = parseInts(value)
		}
		if err != nil {
			return nil, malformed(s, "bad %s value %q: %v", strings.ToUpper(key), value, err)
		}
	}

	if !sawFreq {
		return nil, malformed(s, "missing FREQ")
	}
	if err := r.Validate(); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, malformed(s, "%s", ae.Message)
		}
		return nil, malformed(s, "%v", err)
	}
	return r, nil
}

// FirstRule finds the first RRULE line in a recurrence property list.
// EXRULE, EXDATE and RDATE lines are skipped.
func FirstRule(lines []string) (string, bool) {
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) >= len(LinePrefix) && strings.EqualFold(l[:len(LinePrefix)], LinePrefix) {
			return l, true
		}
	}
	return "", false
}

func parseUntil(v string) (time.Time, error) {
	if strings.Contains(v, "T") {
		return time.Parse(untilLayout, v)
	}
	// date-only bound, as sent for all-day series
	return time.Parse(untilDateLayout, v)
}

func parseInts(v string) ([]int, error) {
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func malformed(rule, format string, args ...any) error {
	return apperr.Newf(apperr.CodeMalformedRecurrenceRule, "rrule %q: "+format, append([]any{rule}, args...)...)
}
