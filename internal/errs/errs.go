// Package errs defines the error taxonomy shared by the codec, the
// enumerators and the shadow synthesizer.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error
type Kind string

const (
	// KindInvalidInput means a missing or invalid source/destination root.
	// Detected up front, before any side effect.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindFormat means an unrecognized snapshot extension or an undecodable snapshot.
	KindFormat Kind = "FORMAT_ERROR"

	// KindIO means a filesystem operation failed (permissions, path length, disk space).
	KindIO Kind = "IO_ERROR"
)

// Sentinels for errors.Is
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrFormat       = &Error{Kind: KindFormat}
	ErrIO           = &Error{Kind: KindIO}
)

// Error is a classified error with the operation and path it concerns
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// InvalidInput builds a KindInvalidInput error
func InvalidInput(op, path, format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Format wraps err as a KindFormat error
func Format(op, path string, err error) error {
	return &Error{Kind: KindFormat, Op: op, Path: path, Err: err}
}

// IO wraps err as a KindIO error
func IO(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first classified error in the chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
