package model

// EntryKind tags the variant held by an Entry.
type EntryKind int

const (
	Plain EntryKind = iota
	Recurring
)

func (k EntryKind) String() string {
	if k == Recurring {
		return "recurring"
	}
	return "plain"
}

// Entry is a calendar item: either a plain Event or an Event that belongs to
// a recurring series. Rule may be nil on a Recurring entry, for example an
// instance fetched from the service that does not restate its series rule.
type Entry struct {
	Kind EntryKind
	Event

	Rule *RecurrenceRule
	// SeriesID is the remote recurringEventId linking an instance to its
	// series. It is never set locally.
	SeriesID string
}

func NewPlain(e Event) Entry {
	return Entry{Kind: Plain, Event: e}
}

func NewRecurring(e Event, rule *RecurrenceRule) Entry {
	return Entry{Kind: Recurring, Event: e, Rule: rule}
}

func (en Entry) IsRecurring() bool { return en.Kind == Recurring }

// Validate checks the event times and, when present, the rule.
func (en Entry) Validate() error {
	if err := en.Event.Validate(); err != nil {
		return err
	}
	if en.Kind == Recurring && en.Rule != nil {
		return en.Rule.Validate()
	}
	return nil
}
