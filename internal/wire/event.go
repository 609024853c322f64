package wire

import (
	"fmt"
	"time"

	"gcalctl/internal/apperr"
	"gcalctl/internal/model"
	"gcalctl/internal/rrule"
)

const (
	// dateTimeLayout is extended ISO-8601 with an explicit numeric offset,
	// which for UTC renders as +00:00.
	dateTimeLayout = "2006-01-02T15:04:05-07:00"
	utcZone        = "UTC"
)

// Options tune decoding.
type Options struct {
	// StrictDayLong rejects records whose start and end disagree on date vs
	// date-time with InconsistentEventEndpoints. When false, an event is
	// day-long if either endpoint is a date, and the other endpoint is
	// reduced to its UTC calendar date.
	StrictDayLong bool
}

// EncodeEvent maps an Event to its wire record. Mismatched endpoint typing
// fails with InvalidEventTimes.
func EncodeEvent(e model.Event) (Record, error) {
	if err := e.Validate(); err != nil {
		return Record{}, err
	}
	return Record{
		ID:          e.ID,
		Summary:     e.Title,
		Description: optString(e.Description),
		Location:    optString(e.Location),
		Start:       encodeTime(e.Start),
		End:         encodeTime(e.End),
		Attendees:   Attendees(e.Attendees),
	}, nil
}

func encodeTime(et model.EventTime) *EventDateTime {
	if et.IsDate() {
		return &EventDateTime{Date: et.Time().Format(time.DateOnly)}
	}
	return &EventDateTime{
		DateTime: et.Time().UTC().Truncate(time.Second).Format(dateTimeLayout),
		TimeZone: utcZone,
	}
}

// DecodeEvent maps a wire record to an Event. A missing id stays empty. An
// unreadable date or dateTime fails with MalformedEventRecord.
func DecodeEvent(rec Record, opts Options) (model.Event, error) {
	start, err := decodeTime(rec.Start)
	if err != nil {
		return model.Event{}, apperr.Wrap(err, apperr.CodeMalformedEventRecord, fmt.Sprintf("decode event %q start", rec.ID))
	}
	end, err := decodeTime(rec.End)
	if err != nil {
		return model.Event{}, apperr.Wrap(err, apperr.CodeMalformedEventRecord, fmt.Sprintf("decode event %q end", rec.ID))
	}

	if !start.IsZero() && !end.IsZero() && start.Kind() != end.Kind() {
		if opts.StrictDayLong {
			return model.Event{}, apperr.Newf(apperr.CodeInconsistentEventEndpoints,
				"event %q has a %s start and a %s end", rec.ID, start.Kind(), end.Kind())
		}
		start, end = asDate(start), asDate(end)
	}

	return model.Event{
		ID:          rec.ID,
		Title:       rec.Summary,
		Start:       start,
		End:         end,
		Description: deref(rec.Description),
		Location:    deref(rec.Location),
		Attendees:   Emails(rec.Attendees),
	}, nil
}

func asDate(et model.EventTime) model.EventTime {
	if et.Kind() == model.TimeInstant {
		return model.DateOf(et.Time())
	}
	return et
}

func decodeTime(dt *EventDateTime) (model.EventTime, error) {
	switch {
	case dt == nil:
		return model.EventTime{}, nil
	case dt.DateTime != "":
		t, err := parseDateTime(dt.DateTime, dt.TimeZone)
		if err != nil {
			return model.EventTime{}, err
		}
		return model.Instant(t), nil
	case dt.Date != "":
		t, err := time.Parse(time.DateOnly, dt.Date)
		if err != nil {
			return model.EventTime{}, err
		}
		return model.DateOf(t), nil
	default:
		return model.EventTime{}, nil
	}
}

// parseDateTime accepts RFC 3339, or a local date-time interpreted in the
// accompanying IANA zone.
func parseDateTime(v, zone string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err == nil || zone == "" {
		return t, err
	}
	loc, lerr := time.LoadLocation(zone)
	if lerr != nil {
		return time.Time{}, err
	}
	if lt, lerr := time.ParseInLocation("2006-01-02T15:04:05", v, loc); lerr == nil {
		return lt, nil
	}
	return time.Time{}, err
}

// EncodeEntry maps either variant. Recurring entries with a rule gain a
// one-element recurrence list holding the RRULE line.
func EncodeEntry(en model.Entry) (Record, error) {
	rec, err := EncodeEvent(en.Event)
	if err != nil {
		return Record{}, err
	}
	if en.Kind == model.Recurring && en.Rule != nil {
		if err := en.Rule.Validate(); err != nil {
			return Record{}, err
		}
		rec.Recurrence = []string{rrule.FormatLine(en.Rule)}
	}
	return rec, nil
}

// DecodeRecurring builds a Recurring entry. The rule is parsed from the first
// RRULE line when one is present; otherwise the entry has no rule.
func DecodeRecurring(rec Record, opts Options) (model.Entry, error) {
	ev, err := DecodeEvent(rec, opts)
	if err != nil {
		return model.Entry{}, err
	}
	en := model.NewRecurring(ev, nil)
	en.SeriesID = rec.RecurringEventID

	if line, ok := rrule.FirstRule(rec.Recurrence); ok {
		rule, err := rrule.Parse(line)
		if err != nil {
			return model.Entry{}, err
		}
		en.Rule = rule
	}
	return en, nil
}

// DecodeEntry dispatches on the recurrence linkage: records that are
// instances of a series (recurringEventId set) become Recurring entries,
// everything else is Plain.
func DecodeEntry(rec Record, opts Options) (model.Entry, error) {
	if rec.RecurringEventID != "" {
		return DecodeRecurring(rec, opts)
	}
	ev, err := DecodeEvent(rec, opts)
	if err != nil {
		return model.Entry{}, err
	}
	return model.NewPlain(ev), nil
}
