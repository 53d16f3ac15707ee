package engine

import (
	"errors"
	"fmt"
)

// ExecError represents a failure detected during query execution, as
// opposed to a query.ConfigError which always surfaces before execution.
//
// The only runtime failure class this workload has is a deadline hit on a
// dataset of unexpected size. Arithmetic problems (division by zero in a
// derived column) are not errors - they yield NULL cells.
type ExecError struct {
	// Code identifies the error category.
	Code ExecErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ExecErrorCode categorizes execution errors.
type ExecErrorCode string

const (
	// ErrCodeTimeout indicates the context deadline expired mid-query.
	// The query reports this instead of returning a partial result.
	ErrCodeTimeout ExecErrorCode = "TIMEOUT"
)

// Error implements the error interface.
func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is (or wraps) a query timeout.
func IsTimeout(err error) bool {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeTimeout
	}
	return false
}
