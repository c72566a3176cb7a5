package core

import (
	"errors"
	"fmt"
)

// ValidationError reports bad user input. The caller re-prompts; nothing
// was mutated.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConnectivityError reports that the external table store could not be
// reached or rejected the configured credentials.
type ConnectivityError struct {
	Op    string // "read" or "write"
	Table string
	Err   error
}

func (e *ConnectivityError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("table store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("table store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// DataShapeError reports rows in the external store that do not match the
// expected table layout. Row is 1-based and counts the header row.
type DataShapeError struct {
	Table  string
	Row    int
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("table %s row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("table %s: %s", e.Table, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConnectivity reports whether err carries a ConnectivityError.
func IsConnectivity(err error) bool {
	var c *ConnectivityError
	return errors.As(err, &c)
}

// IsDataShape reports whether err carries a DataShapeError.
func IsDataShape(err error) bool {
	var d *DataShapeError
	return errors.As(err, &d)
}
