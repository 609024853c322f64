package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"

	appLog "gcalctl/internal/log"
	"gcalctl/internal/model"
	"gcalctl/internal/rrule"
)

// ParseEntries reads every VEVENT of an iCalendar payload into an Entry.
//
//   - Events whose DTSTART is a DATE become day-long; a missing DTEND means
//     one day.
//   - The UID becomes the entry id.
//   - An RRULE makes the entry Recurring; EXDATE/RDATE are ignored.
//   - Overrides (RECURRENCE-ID) and events that cannot be read are logged and
//     skipped.
func ParseEntries(body []byte) ([]model.Entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	entries := make([]model.Entry, 0)
	for _, ve := range cal.Events() {
		if ve.GetProperty("RECURRENCE-ID") != nil {
			appLog.Debug("ics: skipping recurrence override", "uid", uid(ve))
			continue
		}
		en, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics: vevent skipped", perr, "uid", uid(ve))
			continue
		}
		entries = append(entries, en)
	}

	appLog.Debug("ics: parse completed", "entry_count", len(entries))
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (model.Entry, error) {
	var ev model.Event
	ev.ID = uid(ve)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return model.Entry{}, errors.New("missing DTSTART")
	}

	if isDateValue(dtStart) {
		start, err := ve.GetAllDayStartAt()
		if err != nil {
			return model.Entry{}, fmt.Errorf("DTSTART: %w", err)
		}
		ev.Start = model.DateOf(start)
		ev.End = model.DateOf(start.AddDate(0, 0, 1))
		if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
			end, err := ve.GetAllDayEndAt()
			if err != nil {
				return model.Entry{}, fmt.Errorf("DTEND: %w", err)
			}
			ev.End = model.DateOf(end)
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return model.Entry{}, fmt.Errorf("DTSTART: %w", err)
		}
		ev.Start = model.Instant(start)
		ev.End = ev.Start
		if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
			end, err := ve.GetEndAt()
			if err != nil {
				return model.Entry{}, fmt.Errorf("DTEND: %w", err)
			}
			ev.End = model.Instant(end)
		}
	}

	for _, a := range ve.Attendees() {
		if email := strings.TrimSpace(a.Email()); email != "" {
			ev.AddAttendee(email)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rule, err := rrule.Parse(p.Value)
		if err != nil {
			return model.Entry{}, err
		}
		return model.NewRecurring(ev, rule), nil
	}
	return model.NewPlain(ev), nil
}

// isDateValue reports whether a DTSTART carries VALUE=DATE or a bare
// YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func uid(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}
