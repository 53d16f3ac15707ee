package query

import (
	"errors"
	"fmt"
)

// ConfigError reports a bad query specification: an unknown column, a type
// mismatch, or a structurally invalid spec. Configuration errors are fatal
// for the query and always surface before any row is scanned.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Column names the offending attribute or output column, when known.
	Column string

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeUnknownColumn indicates a name that resolves to no attribute
	// or output column.
	ErrCodeUnknownColumn ConfigErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeTypeMismatch indicates an operation applied to a column of an
	// incompatible kind (e.g. sum over customer_name).
	ErrCodeTypeMismatch ConfigErrorCode = "TYPE_MISMATCH"

	// ErrCodeBadSpec indicates a structural problem (duplicate output
	// column, negative limit, rank over a missing window).
	ErrCodeBadSpec ConfigErrorCode = "BAD_SPEC"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (column=%s)", e.Code, e.Message, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func unknownColumn(column, context string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownColumn,
		Column:  column,
		Message: fmt.Sprintf("unknown column in %s", context),
	}
}

func typeMismatch(column, message string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeTypeMismatch,
		Column:  column,
		Message: message,
	}
}

func badSpec(format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeBadSpec,
		Message: fmt.Sprintf(format, args...),
	}
}
