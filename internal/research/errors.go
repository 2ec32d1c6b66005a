package research

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a search did not produce a result set
type ErrorKind string

const (
	KindTransport         ErrorKind = "transport"
	KindHTTPStatus        ErrorKind = "http_status"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// Sentinels matched with errors.Is against *Error values
var (
	ErrTransport         = errors.New("transport failure")
	ErrHTTPStatus        = errors.New("failed to fetch results")
	ErrMalformedResponse = errors.New("invalid response format")
)

// Error describes a failed search call
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.sentinel().Error()
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return ErrTransport
	}
}

// KindOf returns the kind of a search error, or "" when err is not one
func KindOf(err error) ErrorKind {
	var searchErr *Error
	if errors.As(err, &searchErr) {
		return searchErr.Kind
	}
	return ""
}

func transportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func statusError(code int) *Error {
	return &Error{Kind: KindHTTPStatus, StatusCode: code, Message: ErrHTTPStatus.Error()}
}

func malformedError(detail string) *Error {
	msg := ErrMalformedResponse.Error()
	if detail != "" {
		msg = msg + ": " + detail
	}
	return &Error{Kind: KindMalformedResponse, Message: msg}
}
