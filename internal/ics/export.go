// Package ics converts calendar entries to and from iCalendar (RFC 5545).
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"gcalctl/internal/model"
	"gcalctl/internal/rrule"
)

const productID = "-//gcalctl//Calendar Export//EN"

// Export renders entries as a VCALENDAR. now stamps every VEVENT (DTSTAMP).
// Entries without an id get a random UID.
func Export(entries []model.Entry, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	for _, en := range entries {
		id := en.ID
		if id == "" {
			id = uuid.NewString()
		}
		ve := cal.AddEvent(id)
		ve.SetDtStampTime(now)
		ve.SetSummary(en.Title)
		if en.Description != "" {
			ve.SetDescription(en.Description)
		}
		if en.Location != "" {
			ve.SetLocation(en.Location)
		}

		if en.DayLong() {
			ve.SetAllDayStartAt(en.Start.Time())
			ve.SetAllDayEndAt(en.End.Time())
		} else {
			ve.SetStartAt(en.Start.Time())
			ve.SetEndAt(en.End.Time())
		}

		if en.IsRecurring() && en.Rule != nil {
			ve.AddRrule(rrule.Format(en.Rule))
		}
		for _, a := range en.Attendees {
			ve.AddAttendee(a, ical.ParticipationStatusNeedsAction)
		}
	}

	return cal.Serialize()
}
