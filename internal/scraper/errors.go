package scraper

import (
	"context"
	"errors"
	"fmt"
)

// Caller-visible messages.
const (
	MsgInvalidJSON  = "Please enter valid JSON format"
	MsgInvalidCount = "Please enter value of n greater than 0"
	MsgNoData       = "No data found"
)

// Kind classifies a scrape failure.
type Kind int

const (
	// KindInput is a malformed payload or a non-positive count. Raised before
	// any browser activity.
	KindInput Kind = iota + 1
	// KindTimeout means a ready selector never appeared.
	KindTimeout
	// KindStructural means a listing entry lacks a required field, i.e. the
	// remote markup changed.
	KindStructural
	// KindBrowser covers launching, scripting and reading the browser.
	KindBrowser
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input_error"
	case KindTimeout:
		return "timeout"
	case KindStructural:
		return "structural_error"
	case KindBrowser:
		return "browser_error"
	default:
		return "unknown"
	}
}

// Error is the error type every scrape stage returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// InputError reports a rejected request.
func InputError(msg string, cause error) *Error {
	return &Error{Kind: KindInput, Msg: msg, Err: cause}
}

// TimeoutError reports a page that never rendered its ready selector.
func TimeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, Msg: MsgNoData, Err: cause}
}

// StructuralError reports a listing entry missing a required field.
func StructuralError(format string, args ...any) *Error {
	return &Error{Kind: KindStructural, Msg: fmt.Sprintf(format, args...)}
}

// BrowserError reports a failure talking to the browser.
func BrowserError(msg string, cause error) *Error {
	return &Error{Kind: KindBrowser, Msg: msg, Err: cause}
}

// IsKind reports whether err is a scrape *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// Message returns the text shown to the caller: the bare message for scrape
// errors, the full error text otherwise.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return err.Error()
}

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind.String()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
