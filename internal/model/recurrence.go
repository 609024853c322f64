package model

import (
	"strconv"
	"strings"
	"time"

	"gcalctl/internal/apperr"
)

// Frequency is the base period of a recurrence rule.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// ParseFrequency accepts any casing.
func ParseFrequency(s string) (Frequency, bool) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return f, true
	}
	return "", false
}

// Weekday codes used by BYDAY. A code may carry a signed ordinal prefix
// ("1MO", "-1FR") for monthly and yearly rules.
const (
	MO = "MO"
	TU = "TU"
	WE = "WE"
	TH = "TH"
	FR = "FR"
	SA = "SA"
	SU = "SU"
)

var weekdayCodes = map[string]bool{MO: true, TU: true, WE: true, TH: true, FR: true, SA: true, SU: true}

// RecurrenceRule is the subset of RFC 5545 RRULE the calendar service is
// driven with. Count == 0, a zero Until and nil by-axis slices mean the axis
// is unconstrained. Count and Until are independent; both may be set.
type RecurrenceRule struct {
	Freq     Frequency
	Interval int
	Count    int
	Until    time.Time

	ByDay     []string
	ByMonth   []int
	ByYearDay []int
	ByHour    []int
}

// RuleOption sets an optional RecurrenceRule field.
type RuleOption func(*RecurrenceRule)

func WithInterval(n int) RuleOption {
	return func(r *RecurrenceRule) { r.Interval = n }
}

func WithCount(n int) RuleOption {
	return func(r *RecurrenceRule) { r.Count = n }
}

// WithUntil stores the bound in UTC at second precision.
func WithUntil(t time.Time) RuleOption {
	return func(r *RecurrenceRule) { r.Until = t.UTC().Truncate(time.Second) }
}

func WithByDay(days ...string) RuleOption {
	return func(r *RecurrenceRule) {
		r.ByDay = nil
		for _, d := range days {
			r.ByDay = append(r.ByDay, strings.ToUpper(d))
		}
	}
}

func WithByMonth(months ...int) RuleOption {
	return func(r *RecurrenceRule) { r.ByMonth = months }
}

func WithByYearDay(days ...int) RuleOption {
	return func(r *RecurrenceRule) { r.ByYearDay = days }
}

func WithByHour(hours ...int) RuleOption {
	return func(r *RecurrenceRule) { r.ByHour = hours }
}

// NewRecurrenceRule builds a rule with Interval defaulting to 1 and every
// other axis unconstrained.
func NewRecurrenceRule(freq Frequency, opts ...RuleOption) *RecurrenceRule {
	r := &RecurrenceRule{Freq: Frequency(strings.ToUpper(string(freq))), Interval: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks field ranges.
func (r *RecurrenceRule) Validate() error {
	if _, ok := ParseFrequency(string(r.Freq)); !ok {
		return apperr.Newf(apperr.CodeInvalidRecurrenceRule, "unknown frequency %q", r.Freq)
	}
	if r.Interval < 1 {
		return apperr.Newf(apperr.CodeInvalidRecurrenceRule, "interval must be positive, got %d", r.Interval)
	}
	if r.Count < 0 {
		return apperr.Newf(apperr.CodeInvalidRecurrenceRule, "count must be positive, got %d", r.Count)
	}
	for _, d := range r.ByDay {
		if !ValidWeekday(d) {
			return apperr.Newf(apperr.CodeInvalidRecurrenceRule, "invalid weekday %q", d)
		}
	}
	if err := checkRange("BYMONTH", r.ByMonth, 1, 12); err != nil {
		return err
	}
	if err := checkRange("BYYEARDAY", r.ByYearDay, 1, 366); err != nil {
		return err
	}
	return checkRange("BYHOUR", r.ByHour, 0, 23)
}

// ValidWeekday accepts a two-letter code with an optional ordinal in
// [-53, 53] excluding zero.
func ValidWeekday(code string) bool {
	code = strings.ToUpper(code)
	if len(code) < 2 || !weekdayCodes[code[len(code)-2:]] {
		return false
	}
	prefix := code[:len(code)-2]
	if prefix == "" {
		return true
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n == 0 {
		return false
	}
	return n >= -53 && n <= 53
}

func checkRange(name string, values []int, lo, hi int) error {
	for _, v := range values {
		if v < lo || v > hi {
			return apperr.Newf(apperr.CodeInvalidRecurrenceRule, "%s value %d outside %d-%d", name, v, lo, hi)
		}
	}
	return nil
}

// Describe renders the rule for humans, listing only constrained axes.
func (r *RecurrenceRule) Describe() string {
	if r == nil {
		return ""
	}
	parts := []string{"Frequency: " + string(r.Freq)}
	if r.Interval > 0 {
		parts = append(parts, "Interval: "+strconv.Itoa(r.Interval))
	}
	if r.Count > 0 {
		parts = append(parts, "Count: "+strconv.Itoa(r.Count))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "Until: "+r.Until.Format(time.RFC3339))
	}
	if len(r.ByDay) > 0 {
		parts = append(parts, "By Day: "+strings.Join(r.ByDay, ","))
	}
	if len(r.ByMonth) > 0 {
		parts = append(parts, "By Month: "+joinInts(r.ByMonth))
	}
	if len(r.ByYearDay) > 0 {
		parts = append(parts, "By Year Day: "+joinInts(r.ByYearDay))
	}
	if len(r.ByHour) > 0 {
		parts = append(parts, "By Hour: "+joinInts(r.ByHour))
	}
	return strings.Join(parts, ", ")
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}
