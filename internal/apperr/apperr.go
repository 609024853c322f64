package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure independent of its message.
type Code string

const (
	CodeInvalidEventTimes          Code = "INVALID_EVENT_TIMES"
	CodeInconsistentEventEndpoints Code = "INCONSISTENT_EVENT_ENDPOINTS"
	CodeMalformedRecurrenceRule    Code = "MALFORMED_RECURRENCE_RULE"
	CodeInvalidRecurrenceRule      Code = "INVALID_RECURRENCE_RULE"
	CodeMissingEventID             Code = "MISSING_EVENT_ID"
	CodeEventNotFound              Code = "EVENT_NOT_FOUND"
	CodeAuthentication             Code = "AUTHENTICATION_ERROR"
	CodeRemoteService              Code = "REMOTE_SERVICE_ERROR"
	CodeInvalidPeriodToken         Code = "INVALID_PERIOD_TOKEN"
	CodeMalformedEventRecord       Code = "MALFORMED_EVENT_RECORD"
)

// Error is a typed failure carrying a Code, an optional remote status and the
// underlying cause.
type Error struct {
	Code    Code
	Message string
	// Status is the HTTP status reported by the remote service, or 0 for
	// failures detected locally.
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same Code, so the
// predefined values below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Remote wraps a transport or API failure, keeping the remote status.
func Remote(err error, status int, message string) *Error {
	return &Error{Code: CodeRemoteService, Message: message, Status: status, Err: err}
}

// Predefined errors for use with errors.Is.
var (
	ErrInvalidEventTimes          = New(CodeInvalidEventTimes, "start and end must both be dates or both be date-times")
	ErrInconsistentEventEndpoints = New(CodeInconsistentEventEndpoints, "event endpoints disagree on date vs date-time")
	ErrMalformedRecurrenceRule    = New(CodeMalformedRecurrenceRule, "malformed recurrence rule")
	ErrInvalidRecurrenceRule      = New(CodeInvalidRecurrenceRule, "invalid recurrence rule")
	ErrMissingEventID             = New(CodeMissingEventID, "event has no id")
	ErrEventNotFound              = New(CodeEventNotFound, "event not found")
	ErrAuthentication             = New(CodeAuthentication, "authentication failed")
	ErrRemoteService              = New(CodeRemoteService, "remote calendar service error")
	ErrInvalidPeriodToken         = New(CodeInvalidPeriodToken, "invalid period token")
	ErrMalformedEventRecord       = New(CodeMalformedEventRecord, "event record cannot be decoded")
)

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
