// Package wire maps calendar entries to and from the JSON event records
// exchanged with the remote calendar service.
package wire

// Record is an event resource as sent to and received from the service.
// Presence matters: an endpoint carries exactly one of Date and DateTime, and
// the unused one is omitted rather than sent as null.
type Record struct {
	ID               string         `json:"id,omitempty"`
	Summary          string         `json:"summary"`
	Description      *string        `json:"description"`
	Location         *string        `json:"location"`
	Start            *EventDateTime `json:"start,omitempty"`
	End              *EventDateTime `json:"end,omitempty"`
	Attendees        []Attendee     `json:"attendees"`
	Recurrence       []string       `json:"recurrence,omitempty"`
	RecurringEventID string         `json:"recurringEventId,omitempty"`
	HTMLLink         string         `json:"htmlLink,omitempty"`
}

// EventDateTime is one endpoint of a Record.
type EventDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type Attendee struct {
	Email string `json:"email"`
}

// AttendeePatch is the partial update body that replaces only the attendee
// list of an event.
type AttendeePatch struct {
	Attendees []Attendee `json:"attendees"`
}

// Page is one page of a paginated listing. NextPageToken is empty on the
// last page.
type Page struct {
	Items         []Record
	NextPageToken string
}

// Emails flattens attendee records, keeping order and duplicates.
func Emails(as []Attendee) []string {
	if len(as) == 0 {
		return nil
	}
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Email)
	}
	return out
}

// Attendees builds attendee records from addresses. The result is never nil
// so an empty list is still sent.
func Attendees(emails []string) []Attendee {
	out := make([]Attendee, 0, len(emails))
	for _, e := range emails {
		out = append(out, Attendee{Email: e})
	}
	return out
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
