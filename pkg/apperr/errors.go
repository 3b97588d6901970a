// Package apperr defines the error taxonomy shared by the note pipeline.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error so callers can decide whether to recover or surface it.
type Kind string

const (
	KindConfig     Kind = "CONFIG"
	KindBackend    Kind = "BACKEND"
	KindParse      Kind = "PARSE"
	KindNotFound   Kind = "NOT_FOUND"
	KindIO         Kind = "IO"
	KindValidation Kind = "VALIDATION"
)

// Error is the application error type. Err carries a pkg/errors stack.
type Error struct {
	Kind    Kind
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace exposes the stack recorded on the wrapped cause, if any.
func (e *Error) StackTrace() errors.StackTrace {
	var st interface{ StackTrace() errors.StackTrace }
	if errors.As(e.Err, &st) {
		return st.StackTrace()
	}
	return nil
}

func newError(kind Kind, op string, cause error, format string, args ...interface{}) *Error {
	e := &Error{Kind: kind, Op: op}
	if format != "" {
		e.Message = fmt.Sprintf(format, args...)
	}
	if cause != nil {
		e.Err = errors.WithStack(cause)
	}
	return e
}

// Config reports missing or invalid configuration.
func Config(op string, format string, args ...interface{}) *Error {
	return newError(KindConfig, op, nil, format, args...)
}

// Backend wraps a failure of the text-generation backend.
func Backend(op string, cause error) *Error {
	return newError(KindBackend, op, cause, "")
}

// Parse wraps unparsable model or document output.
func Parse(op string, cause error) *Error {
	return newError(KindParse, op, cause, "")
}

// NotFound reports a missing document.
func NotFound(op, path string) *Error {
	e := newError(KindNotFound, op, nil, "document does not exist")
	e.Path = path
	return e
}

// IO wraps a filesystem failure on path.
func IO(op, path string, cause error) *Error {
	e := newError(KindIO, op, cause, "")
	e.Path = path
	return e
}

// Validation reports unusable caller input.
func Validation(op string, format string, args ...interface{}) *Error {
	return newError(KindValidation, op, nil, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}

func IsBackend(err error) bool {
	return Is(err, KindBackend)
}
