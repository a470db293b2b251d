package lang

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/pebble/log"
)

// Predefined errors (sentinel values).
//
// Every error raised while running a program is derived from one of these
// with [Error.With] or [Error.Wrap], so callers can classify it with
// [errors.Is].
var (
	ErrSyntax             = NewError("syntax error")
	ErrUnknownFunction    = NewError("unknown function")
	ErrArity              = NewError("argument count mismatch")
	ErrIndex              = NewError("indexing error")
	ErrMalformedContainer = NewError("malformed container")
	ErrExpression         = NewError("could not evaluate expression")
	ErrInput              = NewError("failed to read input")
	ErrOutput             = NewError("failed to write output")
	ErrDepth              = NewError("maximum call depth exceeded")
	ErrReadSource         = NewError("failed to read source")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind  *Error      // sentinel this error derives from
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface.
//
// The message has the form "<msg> (<key>=<value> ...): <cause>", omitting
// whichever parts are unset.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if len(e.attrs) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteByte('(')

		for i, a := range e.attrs {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(a.Key)
			sb.WriteByte('=')
			sb.WriteString(a.Value.String())
		}

		sb.WriteByte(')')
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String(log.KeyError, e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String(log.KeyCause, e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		kind:  e.root(),
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		kind:  e.root(),
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// Attr returns the value of the first attribute named key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// atLine attaches a source line number to err unless one is present.
// Errors that are not an *Error are returned unchanged.
func atLine(err error, line int) error {
	var e *Error
	if !errors.As(err, &e) || line <= 0 {
		return err
	}

	if _, ok := e.Attr("line"); ok {
		return err
	}

	return e.With(log.Line(line))
}
