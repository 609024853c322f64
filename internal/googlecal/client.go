// Package googlecal implements the remote calendar client on top of the
// Google Calendar v3 API.
package googlecal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gcalctl/internal/apperr"
	appLog "gcalctl/internal/log"
	"gcalctl/internal/wire"
)

// Client wraps a calendar.Service. One Client serves one operation.
type Client struct {
	svc *calendar.Service
}

// Dial creates a Client authorized by ts.
func Dial(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// List reads one page of single events (recurring series expanded into
// instances) ordered by start time.
func (c *Client) List(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageToken string) (wire.Page, error) {
	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Do()
	if err != nil {
		return wire.Page{}, mapError(err, "list events", calendarID)
	}
	return toPage(res), nil
}

func (c *Client) Get(ctx context.Context, calendarID, eventID string) (wire.Record, error) {
	ev, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return wire.Record{}, mapError(err, "get event", eventID)
	}
	return fromAPI(ev), nil
}

func (c *Client) Insert(ctx context.Context, calendarID string, rec wire.Record) (wire.Record, error) {
	ev, err := c.svc.Events.Insert(calendarID, toAPI(rec)).Context(ctx).Do()
	if err != nil {
		return wire.Record{}, mapError(err, "insert event", calendarID)
	}
	return fromAPI(ev), nil
}

// Update replaces the whole event resource.
func (c *Client) Update(ctx context.Context, calendarID, eventID string, rec wire.Record) (wire.Record, error) {
	ev, err := c.svc.Events.Update(calendarID, eventID, toAPI(rec)).Context(ctx).Do()
	if err != nil {
		return wire.Record{}, mapError(err, "update event", eventID)
	}
	return fromAPI(ev), nil
}

// Patch sends only the attendee list. An empty list is sent explicitly so
// removing the last attendee clears the field.
func (c *Client) Patch(ctx context.Context, calendarID, eventID string, patch wire.AttendeePatch) (wire.Record, error) {
	body := &calendar.Event{
		Attendees:       toAPIAttendees(patch.Attendees),
		ForceSendFields: []string{"Attendees"},
	}
	ev, err := c.svc.Events.Patch(calendarID, eventID, body).Context(ctx).Do()
	if err != nil {
		return wire.Record{}, mapError(err, "patch event", eventID)
	}
	return fromAPI(ev), nil
}

func (c *Client) QuickAdd(ctx context.Context, calendarID, text string) (wire.Record, error) {
	ev, err := c.svc.Events.QuickAdd(calendarID, text).Context(ctx).Do()
	if err != nil {
		return wire.Record{}, mapError(err, "quick add", calendarID)
	}
	return fromAPI(ev), nil
}

// ListInstances reads one page of the occurrences of a recurring event.
func (c *Client) ListInstances(ctx context.Context, calendarID, eventID, pageToken string) (wire.Page, error) {
	call := c.svc.Events.Instances(calendarID, eventID).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return wire.Page{}, mapError(err, "list instances", eventID)
	}
	return toPage(res), nil
}

// mapError turns API failures into the error taxonomy. 404 and 410 (deleted)
// mean the event does not exist; everything else keeps its status.
func mapError(err error, op, target string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound, http.StatusGone:
			return &apperr.Error{
				Code:    apperr.CodeEventNotFound,
				Message: fmt.Sprintf("%s: %q not found", op, target),
				Status:  gerr.Code,
				Err:     err,
			}
		case http.StatusUnauthorized:
			return &apperr.Error{Code: apperr.CodeAuthentication, Message: op, Status: gerr.Code, Err: err}
		}
		appLog.Debug("googlecal: api error", "op", op, "target", target, "status", gerr.Code, "message", gerr.Message)
		return apperr.Remote(err, gerr.Code, op)
	}
	return apperr.Remote(err, 0, op)
}
