package googlecal

import (
	calendar "google.golang.org/api/calendar/v3"

	"gcalctl/internal/wire"
)

func toAPI(rec wire.Record) *calendar.Event {
	ev := &calendar.Event{
		Id:          rec.ID,
		Summary:     rec.Summary,
		Description: derefString(rec.Description),
		Location:    derefString(rec.Location),
		Start:       toAPITime(rec.Start),
		End:         toAPITime(rec.End),
		Attendees:   toAPIAttendees(rec.Attendees),
		Recurrence:  rec.Recurrence,
	}
	if rec.Attendees != nil {
		// an explicit empty list clears attendees on update
		ev.ForceSendFields = append(ev.ForceSendFields, "Attendees")
	}
	return ev
}

func toAPITime(dt *wire.EventDateTime) *calendar.EventDateTime {
	if dt == nil {
		return nil
	}
	return &calendar.EventDateTime{Date: dt.Date, DateTime: dt.DateTime, TimeZone: dt.TimeZone}
}

func toAPIAttendees(as []wire.Attendee) []*calendar.EventAttendee {
	out := make([]*calendar.EventAttendee, 0, len(as))
	for _, a := range as {
		out = append(out, &calendar.EventAttendee{Email: a.Email})
	}
	return out
}

func fromAPI(ev *calendar.Event) wire.Record {
	if ev == nil {
		return wire.Record{}
	}
	rec := wire.Record{
		ID:               ev.Id,
		Summary:          ev.Summary,
		Description:      optString(ev.Description),
		Location:         optString(ev.Location),
		Start:            fromAPITime(ev.Start),
		End:              fromAPITime(ev.End),
		Recurrence:       ev.Recurrence,
		RecurringEventID: ev.RecurringEventId,
		HTMLLink:         ev.HtmlLink,
	}
	for _, a := range ev.Attendees {
		if a == nil {
			continue
		}
		rec.Attendees = append(rec.Attendees, wire.Attendee{Email: a.Email})
	}
	return rec
}

func fromAPITime(dt *calendar.EventDateTime) *wire.EventDateTime {
	if dt == nil {
		return nil
	}
	return &wire.EventDateTime{Date: dt.Date, DateTime: dt.DateTime, TimeZone: dt.TimeZone}
}

func toPage(res *calendar.Events) wire.Page {
	p := wire.Page{NextPageToken: res.NextPageToken, Items: make([]wire.Record, 0, len(res.Items))}
	for _, ev := range res.Items {
		p.Items = append(p.Items, fromAPI(ev))
	}
	return p
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
