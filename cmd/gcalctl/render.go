package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gcalctl/internal/ics"
	"gcalctl/internal/model"
	"gcalctl/internal/wire"
)

const (
	dateLayout     = "Mon 2006-01-02"
	dateTimeLayout = "Mon 2006-01-02 15:04 MST"
)

func (a *app) renderList(entries []model.Entry) error {
	switch a.format() {
	case "json":
		return a.writeRecords(entries)
	case "ics":
		_, err := io.WriteString(a.out, ics.Export(entries, a.now()))
		return err
	case "text", "":
		if len(entries) == 0 {
			fmt.Fprintln(a.out, "No events.")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, en := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.when(en.Event), titleOf(en), en.ID)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or ics)", a.format())
	}
}

func (a *app) renderOne(en model.Entry) error {
	switch a.format() {
	case "json", "ics":
		return a.renderList([]model.Entry{en})
	case "text", "":
		_, err := io.WriteString(a.out, describe(en, a.loc))
		return err
	default:
		return fmt.Errorf("unknown output format %q (want text, json or ics)", a.format())
	}
}

// when renders the span of ev on one line.
func (a *app) when(ev model.Event) string {
	if ev.DayLong() {
		last := ev.End.Time().AddDate(0, 0, -1)
		if !last.After(ev.Start.Time()) {
			return ev.Start.Time().Format(dateLayout) + " (all day)"
		}
		return ev.Start.Time().Format(dateLayout) + " - " + last.Format(dateLayout) + " (all day)"
	}
	start := ev.Start.Time().In(a.loc)
	end := ev.End.Time().In(a.loc)
	if sameDay(start, end) {
		return start.Format(dateTimeLayout) + " - " + end.Format("15:04")
	}
	return start.Format(dateTimeLayout) + " - " + end.Format(dateTimeLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func titleOf(en model.Entry) string {
	title := en.Title
	if title == "" {
		title = "(no title)"
	}
	if en.IsRecurring() {
		title += " (recurring)"
	}
	return title
}

// describe renders every field of en for humans. Times are shown in loc;
// civil dates are shown as is.
func describe(en model.Entry, loc *time.Location) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 1, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}

	row("ID", en.ID)
	row("Title", en.Title)
	row("Start", formatEventTime(en.Start, loc))
	row("End", formatEventTime(en.End, loc))
	if en.DayLong() {
		row("Day-long", "yes (end date is exclusive)")
	}
	row("Description", en.Description)
	row("Location", en.Location)
	row("Attendees", strings.Join(en.Attendees, ", "))
	if en.IsRecurring() {
		row("Series", en.SeriesID)
		row("Recurrence", en.Rule.Describe())
	}
	_ = tw.Flush()
	return b.String()
}

func formatEventTime(et model.EventTime, loc *time.Location) string {
	switch {
	case et.IsZero():
		return ""
	case et.IsDate():
		return et.Time().Format(dateLayout)
	default:
		return et.Time().In(loc).Format(dateTimeLayout)
	}
}

func formatOccurrence(occ model.Occurrence) string {
	if occ.AllDay {
		return occ.Start.Format(dateLayout) + " (all day)"
	}
	return occ.Start.Format(dateTimeLayout) + " - " + occ.End.Format("15:04")
}

// writeRecords prints entries in the remote wire shape.
func (a *app) writeRecords(entries []model.Entry) error {
	recs := make([]wire.Record, 0, len(entries))
	for _, en := range entries {
		rec, err := wire.EncodeEntry(en)
		if err != nil {
			return err
		}
		rec.RecurringEventID = en.SeriesID
		recs = append(recs, rec)
	}
	return writeJSON(a.out, recs)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
