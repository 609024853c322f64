package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"gcalctl/internal/apperr"
	"gcalctl/internal/model"
	"gcalctl/internal/timerange"
	"gcalctl/internal/wire"
)

type credsStub struct {
	calls int
	err   error
}

func (s *credsStub) Credentials(ctx context.Context) (oauth2.TokenSource, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}), nil
}

type clientStub struct {
	records map[string]wire.Record
	pages   []wire.Page
	pageErr map[int]error
	listErr error

	tokens   []string
	inserted []wire.Record
	updated  []wire.Record
	patched  []wire.AttendeePatch
	calls    int
}

func (c *clientStub) page(token string) (wire.Page, error) {
	c.tokens = append(c.tokens, token)
	i := len(c.tokens) - 1
	if err := c.pageErr[i]; err != nil {
		return wire.Page{}, err
	}
	if i >= len(c.pages) {
		return wire.Page{}, nil
	}
	return c.pages[i], nil
}

func (c *clientStub) List(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageToken string) (wire.Page, error) {
	c.calls++
	if c.listErr != nil {
		return wire.Page{}, c.listErr
	}
	return c.page(pageToken)
}

func (c *clientStub) Get(ctx context.Context, calendarID, eventID string) (wire.Record, error) {
	c.calls++
	rec, ok := c.records[eventID]
	if !ok {
		return wire.Record{}, apperr.Newf(apperr.CodeEventNotFound, "event %q not found", eventID)
	}
	return rec, nil
}

func (c *clientStub) Insert(ctx context.Context, calendarID string, rec wire.Record) (wire.Record, error) {
	c.calls++
	c.inserted = append(c.inserted, rec)
	rec.ID = "new1"
	rec.HTMLLink = "https://calendar.example/event?eid=new1"
	return rec, nil
}

func (c *clientStub) Update(ctx context.Context, calendarID, eventID string, rec wire.Record) (wire.Record, error) {
	c.calls++
	c.updated = append(c.updated, rec)
	return rec, nil
}

func (c *clientStub) Patch(ctx context.Context, calendarID, eventID string, patch wire.AttendeePatch) (wire.Record, error) {
	c.calls++
	c.patched = append(c.patched, patch)
	rec := c.records[eventID]
	rec.Attendees = patch.Attendees
	return rec, nil
}

func (c *clientStub) QuickAdd(ctx context.Context, calendarID, text string) (wire.Record, error) {
	c.calls++
	return wire.Record{
		ID:      "qa1",
		Summary: text,
		Start:   &wire.EventDateTime{DateTime: "2024-06-10T09:00:00Z"},
		End:     &wire.EventDateTime{DateTime: "2024-06-10T10:00:00Z"},
	}, nil
}

func (c *clientStub) ListInstances(ctx context.Context, calendarID, eventID, pageToken string) (wire.Page, error) {
	c.calls++
	return c.page(pageToken)
}

func newGateway(c *clientStub) (*Gateway, *credsStub) {
	creds := &credsStub{}
	dial := func(ctx context.Context, ts oauth2.TokenSource) (Client, error) { return c, nil }
	return New(creds, dial, WithCalendarID("team@example.com")), creds
}

func timedRecord(id, series string) wire.Record {
	return wire.Record{
		ID:               id,
		Summary:          "Standup " + id,
		Start:            &wire.EventDateTime{DateTime: "2024-06-10T09:00:00Z"},
		End:              &wire.EventDateTime{DateTime: "2024-06-10T09:15:00Z"},
		RecurringEventID: series,
	}
}

func TestListDispatchesOnSeriesLink(t *testing.T) {
	c := &clientStub{pages: []wire.Page{{Items: []wire.Record{timedRecord("a", ""), timedRecord("b_1", "b")}}}}
	g, _ := newGateway(c)

	entries, err := g.List(context.Background(), timerange.Range{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.Plain, entries[0].Kind)
	assert.Equal(t, model.Recurring, entries[1].Kind)
	assert.Equal(t, "b", entries[1].SeriesID)
	assert.Equal(t, "team@example.com", g.CalendarID())
}

func TestListEmptyIsNotAnError(t *testing.T) {
	g, _ := newGateway(&clientStub{})

	entries, err := g.List(context.Background(), timerange.Range{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestListWrapsTransportFailure(t *testing.T) {
	g, _ := newGateway(&clientStub{listErr: errors.New("connection reset")})

	_, err := g.List(context.Background(), timerange.Range{})
	assert.True(t, errors.Is(err, apperr.ErrRemoteService))
}

func TestGetNotFound(t *testing.T) {
	g, _ := newGateway(&clientStub{})

	_, err := g.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrEventNotFound))
}

func TestGetStrictDayLong(t *testing.T) {
	rec := wire.Record{
		ID:    "mixed",
		Start: &wire.EventDateTime{Date: "2024-06-09"},
		End:   &wire.EventDateTime{DateTime: "2024-06-09T10:00:00Z"},
	}
	c := &clientStub{records: map[string]wire.Record{"mixed": rec}}

	g, _ := newGateway(c)
	_, err := g.Get(context.Background(), "mixed")
	assert.True(t, errors.Is(err, apperr.ErrInconsistentEventEndpoints))

	lenient := New(&credsStub{}, func(ctx context.Context, ts oauth2.TokenSource) (Client, error) { return c, nil },
		WithStrictDayLong(false))
	en, err := lenient.Get(context.Background(), "mixed")
	require.NoError(t, err)
	assert.True(t, en.DayLong())
}

func TestGetUndecodableRecordIsNotRemote(t *testing.T) {
	rec := timedRecord("bad", "")
	rec.Start = &wire.EventDateTime{DateTime: "not a time"}
	g, _ := newGateway(&clientStub{records: map[string]wire.Record{"bad": rec}})

	_, err := g.Get(context.Background(), "bad")
	assert.True(t, errors.Is(err, apperr.ErrMalformedEventRecord), "got %v", err)
	assert.False(t, errors.Is(err, apperr.ErrRemoteService))
}

func TestListUndecodableRecordAborts(t *testing.T) {
	bad := timedRecord("bad", "")
	bad.End = &wire.EventDateTime{Date: "June 10"}
	g, _ := newGateway(&clientStub{pages: []wire.Page{{Items: []wire.Record{timedRecord("ok", ""), bad}}}})

	entries, err := g.List(context.Background(), timerange.Range{})
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, apperr.ErrMalformedEventRecord), "got %v", err)
}

func TestCreateRejectsMixedTimesLocally(t *testing.T) {
	c := &clientStub{}
	g, creds := newGateway(c)
	ev := model.NewEvent("bad", model.Date(2024, 6, 9), model.Instant(time.Date(2024, 6, 9, 9, 0, 0, 0, time.UTC)))

	_, err := g.Create(context.Background(), model.NewPlain(ev))
	assert.True(t, errors.Is(err, apperr.ErrInvalidEventTimes))
	assert.Zero(t, creds.calls)
	assert.Zero(t, c.calls)
}

func TestCreateRecurring(t *testing.T) {
	c := &clientStub{}
	g, _ := newGateway(c)
	start := time.Date(2024, 6, 6, 14, 0, 0, 0, time.UTC)
	ev := model.NewEvent("Weekly Team Meeting", model.Instant(start), model.Instant(start.Add(time.Hour)), model.WithID("ignored"))
	rule := model.NewRecurrenceRule(model.Weekly, model.WithByDay(model.TH))

	created, err := g.Create(context.Background(), model.NewRecurring(ev, rule))
	require.NoError(t, err)
	assert.Equal(t, Created{ID: "new1", Link: "https://calendar.example/event?eid=new1"}, created)

	require.Len(t, c.inserted, 1)
	assert.Empty(t, c.inserted[0].ID)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;INTERVAL=1;BYDAY=TH"}, c.inserted[0].Recurrence)
}

func TestUpdateRequiresID(t *testing.T) {
	c := &clientStub{}
	g, _ := newGateway(c)
	day := model.Date(2024, 6, 9)

	_, err := g.Update(context.Background(), model.NewPlain(model.NewEvent("x", day, day)))
	assert.True(t, errors.Is(err, apperr.ErrMissingEventID))
	assert.Zero(t, c.calls)

	en, err := g.Update(context.Background(), model.NewPlain(model.NewEvent("x", day, day, model.WithID("e1"))))
	require.NoError(t, err)
	assert.Equal(t, "e1", en.ID)
	require.Len(t, c.updated, 1)
	assert.Equal(t, "e1", c.updated[0].ID)
}

func TestPatchAttendees(t *testing.T) {
	rec := timedRecord("e1", "")
	rec.Attendees = wire.Attendees([]string{"alice@example.com", "bob@example.com"})
	c := &clientStub{records: map[string]wire.Record{"e1": rec}}
	g, _ := newGateway(c)

	got, err := g.PatchAttendees(context.Background(), "e1",
		[]string{"carol@example.com", "alice@example.com"},
		[]string{"bob@example.com", "zed@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "carol@example.com"}, got)
	require.Len(t, c.patched, 1)
	assert.Equal(t, wire.Attendees(got), c.patched[0].Attendees)
}

func TestPatchAttendeesNoOp(t *testing.T) {
	rec := timedRecord("e1", "")
	rec.Attendees = wire.Attendees([]string{"alice@example.com", "bob@example.com"})
	c := &clientStub{records: map[string]wire.Record{"e1": rec}}
	g, _ := newGateway(c)

	got, err := g.PatchAttendees(context.Background(), "e1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, got)
}

func TestPatchAttendeesNotFound(t *testing.T) {
	c := &clientStub{}
	g, _ := newGateway(c)

	_, err := g.PatchAttendees(context.Background(), "nope", []string{"a@example.com"}, nil)
	assert.True(t, errors.Is(err, apperr.ErrEventNotFound))
	assert.Empty(t, c.patched)
}

func TestMergeAttendeesEmpty(t *testing.T) {
	got := MergeAttendees([]string{"a@example.com"}, nil, []string{"A@example.com"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMergeAttendeesFoldsCase(t *testing.T) {
	got := MergeAttendees([]string{"Alice@Example.com", "bob@example.com"}, []string{"alice@example.com", "carol@example.com"}, []string{"BOB@example.com"})
	assert.Equal(t, []string{"Alice@Example.com", "carol@example.com"}, got)
}

func TestListRecurrenceInstancesAcrossPages(t *testing.T) {
	c := &clientStub{pages: []wire.Page{
		{Items: []wire.Record{timedRecord("s_1", "s"), timedRecord("s_2", "s")}, NextPageToken: "p2"},
		{Items: []wire.Record{timedRecord("s_3", "s")}},
	}}
	g, _ := newGateway(c)

	entries, err := g.ListRecurrenceInstances(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"", "p2"}, c.tokens)
	for i, en := range entries {
		assert.Equal(t, model.Recurring, en.Kind)
		assert.Equal(t, "s_"+string(rune('1'+i)), en.ID)
	}
}

func TestListRecurrenceInstancesAbortsOnPageFailure(t *testing.T) {
	c := &clientStub{
		pages: []wire.Page{
			{Items: []wire.Record{timedRecord("s_1", "s")}, NextPageToken: "p2"},
		},
		pageErr: map[int]error{1: errors.New("503 backend error")},
	}
	g, _ := newGateway(c)

	entries, err := g.ListRecurrenceInstances(context.Background(), "s")
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, apperr.ErrRemoteService))
}

func TestAuthenticationFailure(t *testing.T) {
	c := &clientStub{}
	creds := &credsStub{err: errors.New("token revoked")}
	g := New(creds, func(ctx context.Context, ts oauth2.TokenSource) (Client, error) { return c, nil })

	_, err := g.Get(context.Background(), "e1")
	assert.True(t, errors.Is(err, apperr.ErrAuthentication))
	assert.Zero(t, c.calls)
	assert.Equal(t, DefaultCalendarID, g.CalendarID())
}

func TestQuickAdd(t *testing.T) {
	g, _ := newGateway(&clientStub{})

	en, err := g.QuickAdd(context.Background(), "Lunch tomorrow noon")
	require.NoError(t, err)
	assert.Equal(t, "qa1", en.ID)
	assert.Equal(t, "Lunch tomorrow noon", en.Title)
}
