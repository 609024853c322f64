package model

import (
	"strings"
	"time"

	"gcalctl/internal/apperr"
)

// TimeKind tags an EventTime as either a civil date or an instant.
type TimeKind int

const (
	TimeUnset TimeKind = iota
	// TimeDate is a calendar date with no time-of-day and no zone.
	TimeDate
	// TimeInstant is a point in time, normalized to UTC.
	TimeInstant
)

func (k TimeKind) String() string {
	switch k {
	case TimeDate:
		return "date"
	case TimeInstant:
		return "instant"
	default:
		return "unset"
	}
}

// EventTime is one endpoint of an event. The zero value is unset.
type EventTime struct {
	kind TimeKind
	// For TimeDate, t is 00:00:00 UTC of the civil date.
	t time.Time
}

// Date returns a civil-date EventTime.
func Date(year int, month time.Month, day int) EventTime {
	return EventTime{kind: TimeDate, t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the civil date of t as seen in t's own location.
func DateOf(t time.Time) EventTime {
	return Date(t.Year(), t.Month(), t.Day())
}

// Instant returns an instant EventTime normalized to UTC.
func Instant(t time.Time) EventTime {
	return EventTime{kind: TimeInstant, t: t.UTC()}
}

func (et EventTime) Kind() TimeKind { return et.kind }
func (et EventTime) IsDate() bool   { return et.kind == TimeDate }
func (et EventTime) IsZero() bool   { return et.kind == TimeUnset }

// Time returns the instant, or midnight UTC of the civil date.
func (et EventTime) Time() time.Time { return et.t }

// Equal compares tag and value.
func (et EventTime) Equal(other EventTime) bool {
	return et.kind == other.kind && et.t.Equal(other.t)
}

func (et EventTime) String() string {
	switch et.kind {
	case TimeDate:
		return et.t.Format(time.DateOnly)
	case TimeInstant:
		return et.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Event is a scheduled item. ID stays empty until the remote service assigns
// one on creation.
type Event struct {
	ID    string
	Title string

	Start EventTime
	End   EventTime

	Description string
	Location    string

	// Attendees is an insertion-ordered set of email addresses; use
	// AddAttendee / RemoveAttendee to keep it duplicate free.
	Attendees []string
}

// EventOption sets an optional Event field.
type EventOption func(*Event)

func WithID(id string) EventOption {
	return func(e *Event) { e.ID = id }
}

func WithDescription(d string) EventOption {
	return func(e *Event) { e.Description = d }
}

func WithLocation(l string) EventOption {
	return func(e *Event) { e.Location = l }
}

// WithAttendees adds each address once, in order.
func WithAttendees(addrs ...string) EventOption {
	return func(e *Event) {
		for _, a := range addrs {
			e.AddAttendee(a)
		}
	}
}

// NewEvent builds an Event. Optional fields default to empty: no id, no
// description, no location, no attendees.
func NewEvent(title string, start, end EventTime, opts ...EventOption) Event {
	e := Event{Title: title, Start: start, End: end}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// DayLong reports whether both endpoints are civil dates.
func (e Event) DayLong() bool {
	return e.Start.IsDate() && e.End.IsDate()
}

// Validate checks the start/end typing rule. Ordering (end >= start) is left
// to the remote service.
func (e Event) Validate() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return apperr.Newf(apperr.CodeInvalidEventTimes, "event %q needs both start and end", e.Title)
	}
	if e.Start.Kind() != e.End.Kind() {
		return apperr.Newf(apperr.CodeInvalidEventTimes,
			"event %q mixes a %s start with a %s end", e.Title, e.Start.Kind(), e.End.Kind())
	}
	return nil
}

// HasAttendee reports membership, comparing addresses case-insensitively.
func (e Event) HasAttendee(addr string) bool {
	return indexOf(e.Attendees, addr) >= 0
}

// AddAttendee appends addr unless it is already present. It reports whether
// the set changed.
func (e *Event) AddAttendee(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" || e.HasAttendee(addr) {
		return false
	}
	e.Attendees = append(e.Attendees, addr)
	return true
}

// RemoveAttendee drops addr if present. It reports whether the set changed.
func (e *Event) RemoveAttendee(addr string) bool {
	i := indexOf(e.Attendees, strings.TrimSpace(addr))
	if i < 0 {
		return false
	}
	e.Attendees = append(e.Attendees[:i:i], e.Attendees[i+1:]...)
	return true
}

func indexOf(list []string, addr string) int {
	for i, a := range list {
		if strings.EqualFold(a, addr) {
			return i
		}
	}
	return -1
}

// Occurrence is a single concrete instance of a recurring rule, as produced
// by local expansion.
type Occurrence struct {
	Summary string `json:"summary"`
	AllDay  bool   `json:"all_day"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// InstanceKey uniquely identifies the occurrence within its series,
	// derived from the start time.
	InstanceKey string `json:"instance_key"`
}
