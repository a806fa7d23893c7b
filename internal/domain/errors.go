package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every error surfaced to callers of resolve/navigate.
type ErrorKind string

const (
	KindMalformedURL      ErrorKind = "malformed_url"
	KindFetchFailed       ErrorKind = "fetch_failed"
	KindParseFailed       ErrorKind = "parse_failed"
	KindNoAvailableTarget ErrorKind = "no_available_target"
	KindOpenFailed        ErrorKind = "open_failed"
)

// Sentinels for errors.Is checks. An *Error matches the sentinel of its kind.
var (
	ErrMalformedURL      = &Error{Kind: KindMalformedURL}
	ErrFetchFailed       = &Error{Kind: KindFetchFailed}
	ErrParseFailed       = &Error{Kind: KindParseFailed}
	ErrNoAvailableTarget = &Error{Kind: KindNoAvailableTarget}
	ErrOpenFailed        = &Error{Kind: KindOpenFailed}
)

// Error wraps a collaborator failure into the public taxonomy.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

// NewError builds a taxonomy error for url wrapping cause.
func NewError(kind ErrorKind, url string, cause error) *Error {
	return &Error{Kind: kind, URL: url, Err: cause}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the taxonomy kind of err, or "" if err is not ours.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
