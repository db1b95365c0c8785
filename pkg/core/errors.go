package core

import (
	"errors"
	"fmt"
)

// Error kinds carried by *Error. Failures of a domain operation match one of
// them through errors.Is. Mode errors (ErrReadOnly, ErrClosed), context errors
// and unsupported repository capabilities are returned as they are.
var (
	ErrNotFound     = errors.New("not found")
	ErrIO           = errors.New("i/o failure")
	ErrInvalidInput = errors.New("invalid input")
	ErrCorrupt      = errors.New("corrupt data")
)

// Common errors.
var (
	ErrReadOnly = errors.New("store is in read-only mode")
	ErrClosed   = errors.New("service is closed")
	// ErrNoData is returned by Repository.Load when nothing has been persisted yet.
	ErrNoData = errors.New("no persisted data")
)

// Error carries the kind of a failure together with where it happened.
type Error struct {
	Kind   error  // one of ErrNotFound, ErrIO, ErrInvalidInput, ErrCorrupt
	Op     string // e.g. "update_note"
	Entity string // e.g. "note"
	ID     int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Entity != "" {
		if e.Kind == ErrNotFound {
			msg = fmt.Sprintf("%s: %s %d", msg, e.Entity, e.ID)
		} else {
			msg = fmt.Sprintf("%s: %s", msg, e.Entity)
		}
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool { return e.Kind == target }

func notFound(op, entity string, id int) error {
	return &Error{Kind: ErrNotFound, Op: op, Entity: entity, ID: id}
}

func ioFailure(op string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Err: err}
}

func invalidInput(op, entity string, err error) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Entity: entity, Err: err}
}

// Corrupt wraps a decode or validation failure of persisted data.
func Corrupt(op string, err error) error {
	return &Error{Kind: ErrCorrupt, Op: op, Err: err}
}

// Message maps an error to the string shown to users of the command surface.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case ErrNotFound:
			return fmt.Sprintf("%s not found", capitalize(e.Entity))
		case ErrInvalidInput:
			if e.Err != nil {
				return fmt.Sprintf("Invalid %s: %v", e.Entity, e.Err)
			}
			return fmt.Sprintf("Invalid %s", e.Entity)
		case ErrCorrupt:
			return fmt.Sprintf("Data file is corrupt: %v", e.Err)
		case ErrIO:
			if e.Err != nil {
				return e.Err.Error()
			}
		}
	}
	if errors.Is(err, ErrReadOnly) {
		return "Data is opened read-only"
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return "Item"
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

func errUnsupported(op string) error {
	return fmt.Errorf("repository does not support %s", op)
}
