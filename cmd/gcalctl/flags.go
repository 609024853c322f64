package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gcalctl/internal/model"
	"gcalctl/internal/rrule"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseWhen reads a flag value as a civil date (2006-01-02), an RFC 3339
// timestamp, or a local date-time interpreted in loc.
func parseWhen(s string, loc *time.Location) (model.EventTime, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return model.DateOf(d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return model.Instant(t), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return model.Instant(t), nil
		}
	}
	return model.EventTime{}, fmt.Errorf("cannot read %q as a date (2006-01-02) or date-time (2006-01-02T15:04)", s)
}

// eventFlags are the event fields shared by create, update and preview.
type eventFlags struct {
	title       string
	start       string
	end         string
	duration    time.Duration
	description string
	location    string
	attendees   []string
	rule        string
}

func (f *eventFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.title, "title", "t", "", "event title")
	fs.StringVar(&f.start, "start", "", "start: 2006-01-02 for an all-day event, or a date-time")
	fs.StringVar(&f.end, "end", "", "end (exclusive for all-day events); defaults to start plus --duration or one day")
	fs.DurationVar(&f.duration, "duration", time.Hour, "length of a timed event when --end is omitted")
	fs.StringVar(&f.description, "description", "", "event description")
	fs.StringVar(&f.location, "location", "", "event location")
	fs.StringSliceVar(&f.attendees, "attendee", nil, "attendee email (repeatable or comma separated)")
	fs.StringVar(&f.rule, "rrule", "", "recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO,WE")
}

func (f *eventFlags) times(loc *time.Location) (model.EventTime, model.EventTime, error) {
	start, err := parseWhen(f.start, loc)
	if err != nil {
		return model.EventTime{}, model.EventTime{}, fmt.Errorf("--start: %w", err)
	}
	if f.end != "" {
		end, err := parseWhen(f.end, loc)
		if err != nil {
			return model.EventTime{}, model.EventTime{}, fmt.Errorf("--end: %w", err)
		}
		return start, end, nil
	}
	if start.IsDate() {
		return start, model.DateOf(start.Time().AddDate(0, 0, 1)), nil
	}
	return start, model.Instant(start.Time().Add(f.duration)), nil
}

// entry builds a new entry from the flags. A rule makes it Recurring.
func (f *eventFlags) entry(loc *time.Location) (model.Entry, error) {
	if f.title == "" {
		return model.Entry{}, fmt.Errorf("--title is required")
	}
	if f.start == "" {
		return model.Entry{}, fmt.Errorf("--start is required")
	}
	start, end, err := f.times(loc)
	if err != nil {
		return model.Entry{}, err
	}
	ev := model.NewEvent(f.title, start, end,
		model.WithDescription(f.description),
		model.WithLocation(f.location),
		model.WithAttendees(f.attendees...))

	if f.rule == "" {
		return model.NewPlain(ev), nil
	}
	rule, err := rrule.Parse(f.rule)
	if err != nil {
		return model.Entry{}, err
	}
	return model.NewRecurring(ev, rule), nil
}

// apply overwrites the fields of en whose flags were given on the command
// line.
func (f *eventFlags) apply(cmd *cobra.Command, en *model.Entry, loc *time.Location) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		en.Title = f.title
	}
	if changed("description") {
		en.Description = f.description
	}
	if changed("location") {
		en.Location = f.location
	}
	if changed("attendee") {
		en.Attendees = nil
		for _, a := range f.attendees {
			en.AddAttendee(a)
		}
	}
	if changed("start") {
		start, end, err := f.times(loc)
		if err != nil {
			return err
		}
		en.Start, en.End = start, end
	} else if changed("end") {
		end, err := parseWhen(f.end, loc)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		en.End = end
	}
	if changed("rrule") {
		if f.rule == "" {
			en.Kind, en.Rule = model.Plain, nil
			return nil
		}
		rule, err := rrule.Parse(f.rule)
		if err != nil {
			return err
		}
		en.Kind, en.Rule = model.Recurring, rule
	}
	return nil
}
