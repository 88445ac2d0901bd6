package relation

import (
	"fmt"

	heapfile "StrataDB/storage_engine/access/heapfile_manager"

	"github.com/pkg/errors"
)

var (
	ErrArityMismatch  = errors.New("wrong number of values")
	ErrNullViolation  = errors.New("column cannot be null")
	ErrTypeMismatch   = errors.New("value does not match column type")
	ErrStringTooLong  = errors.New("string longer than column width")
	ErrDuplicateValue = errors.New("value already exists")
	ErrRowNotFound    = heapfile.ErrRowNotFound

	ErrNoIndex      = errors.New("no superkey or index covers these columns")
	ErrClosed       = errors.New("relation is closed")
	ErrInconsistent = errors.New("relation files disagree")
)

// ConstraintError is returned when a row is rejected. Err is one of the
// sentinels above, so callers can match with errors.Is.
type ConstraintError struct {
	Err    error
	Column string
	Detail string
}

func (e *ConstraintError) Error() string {
	msg := e.Err.Error()
	if e.Column != "" {
		msg = fmt.Sprintf("column %q: %s", e.Column, msg)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func constraint(err error, column, detail string) error {
	return &ConstraintError{Err: err, Column: column, Detail: detail}
}
