package ics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcalctl/internal/model"
)

const sample = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup-1\r\n" +
	"DTSTAMP:20240601T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART;TZID=America/New_York:20240610T090000\r\n" +
	"DTEND;TZID=America/New_York:20240610T091500\r\n" +
	"RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR;COUNT=10\r\n" +
	"ATTENDEE;CN=Alice:mailto:alice@example.com\r\n" +
	"ATTENDEE:mailto:bob@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup-1\r\n" +
	"DTSTAMP:20240601T000000Z\r\n" +
	"RECURRENCE-ID;TZID=America/New_York:20240612T090000\r\n" +
	"SUMMARY:Standup moved\r\n" +
	"DTSTART;TZID=America/New_York:20240612T100000\r\n" +
	"DTEND;TZID=America/New_York:20240612T101500\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"DTSTAMP:20240601T000000Z\r\n" +
	"SUMMARY:Holiday\r\n" +
	"LOCATION:Everywhere\r\n" +
	"DTSTART;VALUE=DATE:20240704\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:broken\r\n" +
	"SUMMARY:No start\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseEntries(t *testing.T) {
	entries, err := ParseEntries([]byte(sample))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	standup := entries[0]
	assert.Equal(t, model.Recurring, standup.Kind)
	assert.Equal(t, "standup-1", standup.ID)
	assert.Equal(t, "Standup", standup.Title)
	assert.Equal(t, model.Instant(time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)), standup.Start)
	assert.Equal(t, model.Instant(time.Date(2024, 6, 10, 13, 15, 0, 0, time.UTC)), standup.End)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, standup.Attendees)
	require.NotNil(t, standup.Rule)
	assert.Equal(t, model.Weekly, standup.Rule.Freq)
	assert.Equal(t, 10, standup.Rule.Count)
	assert.Equal(t, []string{"MO", "WE", "FR"}, standup.Rule.ByDay)

	holiday := entries[1]
	assert.Equal(t, model.Plain, holiday.Kind)
	assert.True(t, holiday.DayLong())
	assert.Equal(t, model.Date(2024, 7, 4), holiday.Start)
	assert.Equal(t, model.Date(2024, 7, 5), holiday.End)
	assert.Equal(t, "Everywhere", holiday.Location)
}

func TestParseEntriesRejectsEmpty(t *testing.T) {
	_, err := ParseEntries([]byte("  \n"))
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	start := time.Date(2024, 6, 6, 14, 0, 0, 0, time.UTC)
	weekly := model.NewRecurring(
		model.NewEvent("Weekly Team Meeting", model.Instant(start), model.Instant(start.Add(time.Hour)),
			model.WithID("meet-1"), model.WithDescription("Agenda in doc"), model.WithAttendees("dev@example.com")),
		model.NewRecurrenceRule(model.Weekly, model.WithByDay(model.TH)))
	offsite := model.NewPlain(model.NewEvent("Offsite", model.Date(2024, 6, 9), model.Date(2024, 6, 10),
		model.WithID("off-1"), model.WithLocation("Lake house")))

	stamp := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	out := Export([]model.Entry{weekly, offsite}, stamp)

	assert.Contains(t, out, "PRODID:"+productID)
	assert.Contains(t, out, "DTSTAMP:20240601T080000Z")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;INTERVAL=1;BYDAY=TH")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240609")
	assert.Contains(t, out, "mailto:dev@example.com")

	back, err := ParseEntries([]byte(out))
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, weekly, back[0])
	assert.Equal(t, offsite, back[1])
}

func TestExportAssignsUID(t *testing.T) {
	day := model.Date(2024, 1, 1)
	out := Export([]model.Entry{model.NewPlain(model.NewEvent("New year", day, model.Date(2024, 1, 2)))}, time.Now())

	back, err := ParseEntries([]byte(out))
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Len(t, back[0].ID, 36)
}

func TestFetcherLoadsURLAndFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.ics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = io.WriteString(w, sample)
	}))
	defer srv.Close()

	f := NewFetcher(0)
	body, err := f.Load(context.Background(), srv.URL+"/feed.ics")
	require.NoError(t, err)
	assert.Equal(t, sample, string(body))

	_, err = f.Load(context.Background(), srv.URL+"/missing.ics")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NotContains(t, err.Error(), "missing.ics")

	path := filepath.Join(t.TempDir(), "cal.ics")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	body, err = f.Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "BEGIN:VCALENDAR"))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/abc.ics?token=x"))
	assert.Equal(t, "http://host:8080/...(redacted)", redactURL("http://host:8080"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
