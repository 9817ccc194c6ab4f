package db

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when an operation requires a live session
// and there is none.
var ErrNotConnected = errors.New("not connected")

// ConnectionError wraps a failure to establish or resume a session,
// including malformed configuration sections.
type ConnectionError struct {
	Vendor Vendor
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Vendor, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError wraps a statement rejected by the database. Query errors
// are never retried.
type QueryError struct {
	Vendor Vendor
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: query failed: %v", e.Vendor, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func connErr(v Vendor, err error) error {
	return &ConnectionError{Vendor: v, Err: err}
}

func queryErr(v Vendor, err error) error {
	return &QueryError{Vendor: v, Err: err}
}
