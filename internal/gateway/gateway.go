// Package gateway turns entry-level calendar operations into calls against
// the remote calendar client, encoding and decoding entries on the way.
package gateway

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"gcalctl/internal/apperr"
	appLog "gcalctl/internal/log"
	"gcalctl/internal/model"
	"gcalctl/internal/timerange"
	"gcalctl/internal/wire"
)

// DefaultCalendarID addresses the authenticated user's main calendar.
const DefaultCalendarID = "primary"

// CredentialProvider obtains credentials for one operation. The gateway does
// not look inside them; they are handed to the Dialer as is.
type CredentialProvider interface {
	Credentials(ctx context.Context) (oauth2.TokenSource, error)
}

// Client is the remote calendar service. Implementations report a missing
// event with an apperr EventNotFound error; any other failure may be a plain
// error and is wrapped as RemoteServiceError here.
type Client interface {
	List(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageToken string) (wire.Page, error)
	Get(ctx context.Context, calendarID, eventID string) (wire.Record, error)
	Insert(ctx context.Context, calendarID string, rec wire.Record) (wire.Record, error)
	Update(ctx context.Context, calendarID, eventID string, rec wire.Record) (wire.Record, error)
	Patch(ctx context.Context, calendarID, eventID string, patch wire.AttendeePatch) (wire.Record, error)
	QuickAdd(ctx context.Context, calendarID, text string) (wire.Record, error)
	ListInstances(ctx context.Context, calendarID, eventID, pageToken string) (wire.Page, error)
}

// Dialer builds a client handle from credentials.
type Dialer func(ctx context.Context, creds oauth2.TokenSource) (Client, error)

// Gateway is the calendar facade. Every operation obtains credentials and
// dials a fresh client; nothing is shared between calls.
type Gateway struct {
	calendarID string
	creds      CredentialProvider
	dial       Dialer
	wireOpts   wire.Options
}

type Option func(*Gateway)

func WithCalendarID(id string) Option {
	return func(g *Gateway) {
		if id != "" {
			g.calendarID = id
		}
	}
}

// WithStrictDayLong selects how records with mixed date/date-time endpoints
// are decoded; see wire.Options.
func WithStrictDayLong(strict bool) Option {
	return func(g *Gateway) { g.wireOpts.StrictDayLong = strict }
}

// New creates a Gateway. Defaults: the primary calendar and strict day-long
// decoding.
func New(creds CredentialProvider, dial Dialer, opts ...Option) *Gateway {
	g := &Gateway{
		calendarID: DefaultCalendarID,
		creds:      creds,
		dial:       dial,
		wireOpts:   wire.Options{StrictDayLong: true},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CalendarID returns the calendar the gateway operates on.
func (g *Gateway) CalendarID() string { return g.calendarID }

// Created identifies a newly inserted event.
type Created struct {
	ID   string
	Link string
}

// List returns every entry in the closed range, following remote pages until
// exhausted. No events is an empty result, not an error.
func (g *Gateway) List(ctx context.Context, r timerange.Range) ([]model.Entry, error) {
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	appLog.Debug("gateway: list", "calendar_id", g.calendarID, "time_min", r.Start, "time_max", r.End)

	entries, err := g.collect(func(token string) (wire.Page, error) {
		return c.List(ctx, g.calendarID, r.Start, r.End, token)
	}, g.decodeEntry)
	if err != nil {
		return nil, remote(err, "list events")
	}

	appLog.Info("gateway: listed events", "calendar_id", g.calendarID, "count", len(entries))
	return entries, nil
}

// Get fetches one entry by id.
func (g *Gateway) Get(ctx context.Context, id string) (model.Entry, error) {
	if id == "" {
		return model.Entry{}, apperr.ErrMissingEventID
	}
	c, err := g.client(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	rec, err := c.Get(ctx, g.calendarID, id)
	if err != nil {
		return model.Entry{}, remote(err, "get event "+id)
	}
	return g.decodeEntry(rec)
}

// Create inserts en. Entries with mismatched endpoint typing fail with
// InvalidEventTimes before credentials are requested.
func (g *Gateway) Create(ctx context.Context, en model.Entry) (Created, error) {
	rec, err := wire.EncodeEntry(en)
	if err != nil {
		return Created{}, err
	}
	rec.ID = ""

	c, err := g.client(ctx)
	if err != nil {
		return Created{}, err
	}
	out, err := c.Insert(ctx, g.calendarID, rec)
	if err != nil {
		return Created{}, remote(err, "insert event")
	}

	appLog.Info("gateway: event created", "calendar_id", g.calendarID, "event_id", out.ID, "recurring", en.IsRecurring())
	return Created{ID: out.ID, Link: out.HTMLLink}, nil
}

// Update replaces the full remote record of en, which must carry an id.
func (g *Gateway) Update(ctx context.Context, en model.Entry) (model.Entry, error) {
	if en.ID == "" {
		return model.Entry{}, apperr.Newf(apperr.CodeMissingEventID, "cannot update %q: event has no id", en.Title)
	}
	rec, err := wire.EncodeEntry(en)
	if err != nil {
		return model.Entry{}, err
	}

	c, err := g.client(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	out, err := c.Update(ctx, g.calendarID, en.ID, rec)
	if err != nil {
		return model.Entry{}, remote(err, "update event "+en.ID)
	}

	appLog.Info("gateway: event updated", "calendar_id", g.calendarID, "event_id", en.ID)
	return g.decodeEntry(out)
}

// PatchAttendees reads the current attendees of id, adds toAdd, removes
// toRemove and sends only the resulting list as a partial update. It returns
// the attendee list the service reports afterwards.
func (g *Gateway) PatchAttendees(ctx context.Context, id string, toAdd, toRemove []string) ([]string, error) {
	if id == "" {
		return nil, apperr.ErrMissingEventID
	}
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	current, err := c.Get(ctx, g.calendarID, id)
	if err != nil {
		return nil, remote(err, "get event "+id)
	}

	attendees := MergeAttendees(wire.Emails(current.Attendees), toAdd, toRemove)

	out, err := c.Patch(ctx, g.calendarID, id, wire.AttendeePatch{Attendees: wire.Attendees(attendees)})
	if err != nil {
		return nil, remote(err, "patch attendees of "+id)
	}

	appLog.Info("gateway: attendees patched", "calendar_id", g.calendarID, "event_id", id,
		"added", len(toAdd), "removed", len(toRemove), "count", len(out.Attendees))
	return wire.Emails(out.Attendees), nil
}

// MergeAttendees returns (current ∪ toAdd) \ toRemove as an ordered set.
func MergeAttendees(current, toAdd, toRemove []string) []string {
	var ev model.Event
	for _, a := range current {
		ev.AddAttendee(a)
	}
	for _, a := range toAdd {
		ev.AddAttendee(a)
	}
	for _, a := range toRemove {
		ev.RemoveAttendee(a)
	}
	if ev.Attendees == nil {
		return []string{}
	}
	return ev.Attendees
}

// ListRecurrenceInstances returns every materialized occurrence of the series
// id, past and future, as Recurring entries. A failure on any page discards
// the pages already read.
func (g *Gateway) ListRecurrenceInstances(ctx context.Context, id string) ([]model.Entry, error) {
	if id == "" {
		return nil, apperr.ErrMissingEventID
	}
	c, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := g.collect(func(token string) (wire.Page, error) {
		return c.ListInstances(ctx, g.calendarID, id, token)
	}, func(rec wire.Record) (model.Entry, error) {
		return wire.DecodeRecurring(rec, g.wireOpts)
	})
	if err != nil {
		return nil, remote(err, "list instances of "+id)
	}

	appLog.Info("gateway: listed instances", "calendar_id", g.calendarID, "event_id", id, "count", len(entries))
	return entries, nil
}

// QuickAdd creates an event from free text parsed by the service.
func (g *Gateway) QuickAdd(ctx context.Context, text string) (model.Entry, error) {
	c, err := g.client(ctx)
	if err != nil {
		return model.Entry{}, err
	}
	out, err := c.QuickAdd(ctx, g.calendarID, text)
	if err != nil {
		return model.Entry{}, remote(err, "quick add")
	}
	appLog.Info("gateway: quick add", "calendar_id", g.calendarID, "event_id", out.ID)
	return g.decodeEntry(out)
}

func (g *Gateway) decodeEntry(rec wire.Record) (model.Entry, error) {
	return wire.DecodeEntry(rec, g.wireOpts)
}

// collect reads pages sequentially until the token runs out.
func (g *Gateway) collect(fetch func(token string) (wire.Page, error), decode func(wire.Record) (model.Entry, error)) ([]model.Entry, error) {
	entries := make([]model.Entry, 0)
	token := ""
	for page := 1; ; page++ {
		p, err := fetch(token)
		if err != nil {
			return nil, err
		}
		for _, rec := range p.Items {
			en, err := decode(rec)
			if err != nil {
				return nil, err
			}
			entries = append(entries, en)
		}
		appLog.Debug("gateway: page read", "page", page, "items", len(p.Items), "more", p.NextPageToken != "")
		if p.NextPageToken == "" {
			return entries, nil
		}
		token = p.NextPageToken
	}
}

func (g *Gateway) client(ctx context.Context) (Client, error) {
	ts, err := g.creds.Credentials(ctx)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeAuthentication {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.CodeAuthentication, "obtain credentials")
	}
	c, err := g.dial(ctx, ts)
	if err != nil {
		return nil, remote(err, "connect to calendar service")
	}
	return c, nil
}

// remote passes typed errors through and wraps anything else as
// RemoteServiceError.
func remote(err error, op string) error {
	if apperr.CodeOf(err) != "" {
		return err
	}
	return apperr.Remote(err, 0, op)
}
