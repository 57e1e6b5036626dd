package repository

import (
	"errors"
	"fmt"
)

// Kind classifies repository failures so callers can decide what is user-visible.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection means a pooled connection could not be acquired.
	KindConnection
	// KindStatement means statement execution or row scanning failed.
	KindStatement
	// KindNotFound means the statement ran but matched no rows.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindStatement:
		return "statement"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// ErrNotFound is wrapped by every KindNotFound error.
var ErrNotFound = errors.New("user not found")

// Error is returned by UserRepository methods.
type Error struct {
	Op   string // repository method, e.g. "search"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or KindUnknown if err is not a repository error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

func connErr(op string, err error) error {
	return &Error{Op: op, Kind: KindConnection, Err: err}
}

func stmtErr(op string, err error) error {
	return &Error{Op: op, Kind: KindStatement, Err: err}
}

func notFound(op string) error {
	return &Error{Op: op, Kind: KindNotFound, Err: ErrNotFound}
}
