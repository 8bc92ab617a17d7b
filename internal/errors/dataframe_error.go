// Package errors provides standardized error types for table operations.
// This package defines DataFrameError for consistent error handling across
// the loader, the table operators and the analytics pipeline, with an error
// kind that separates fatal input problems from recoverable ones.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error by how the pipeline reacts to it.
type Kind int

const (
	// KindInternal is an unexpected failure inside an operation.
	KindInternal Kind = iota
	// KindIO is a missing or unreadable input. Fatal.
	KindIO
	// KindSchema is a missing column or a value of the wrong type. Fatal.
	KindSchema
	// KindData is a record-level defect that is recovered by exclusion.
	KindData
	// KindArithmetic is a guarded numeric fault such as division by zero.
	KindArithmetic
	// KindInvalidInput is a caller mistake, e.g. a negative row count.
	KindInvalidInput
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSchema:
		return "schema"
	case KindData:
		return "data"
	case KindArithmetic:
		return "arithmetic"
	case KindInvalidInput:
		return "invalid input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DataFrameError represents standardized errors across all table operations
type DataFrameError struct {
	Kind    Kind   // Error classification
	Op      string // Operation name (e.g., "Load", "Join", "GroupBySum")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, msg)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, msg)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *DataFrameError) Is(target error) bool {
	var df *DataFrameError
	if stderrors.As(target, &df) && df != nil {
		return e.Kind == df.Kind && e.Op == df.Op && e.Column == df.Column && e.Message == df.Message
	}
	return false
}

// IsKind reports whether any DataFrameError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var df *DataFrameError
		if !stderrors.As(err, &df) {
			return false
		}
		if df.Kind == kind {
			return true
		}
		err = df.Cause
	}
	return false
}

// KindOf returns the kind of the outermost DataFrameError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var df *DataFrameError
	if stderrors.As(err, &df) {
		return df.Kind
	}
	return KindInternal
}

// Common error constructors for consistent error creation

// NewIOError creates an error for unreadable or missing inputs
func NewIOError(op, path string, cause error) *DataFrameError {
	return &DataFrameError{
		Kind:    KindIO,
		Op:      op,
		Message: fmt.Sprintf("cannot read %s", path),
		Cause:   cause,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewSchemaError creates an error for a column whose content does not match its declared type
func NewSchemaError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindInvalidInput,
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewArithmeticError creates an error for a guarded numeric fault
func NewArithmeticError(op, message string) *DataFrameError {
	return &DataFrameError{
		Kind:    KindArithmetic,
		Op:      op,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Wrap attaches a stage name to err while keeping its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataFrameError{
		Kind:    KindOf(err),
		Op:      op,
		Message: "stage failed",
		Cause:   err,
	}
}

// Predefined error variables for common cases
var (
	// ErrMismatchedLength indicates length mismatches in operations
	ErrMismatchedLength = &DataFrameError{
		Kind:    KindInternal,
		Op:      "validation",
		Message: "arrays must have the same length",
	}

	// ErrDivisionByZero indicates a share computed against a zero total
	ErrDivisionByZero = &DataFrameError{
		Kind:    KindArithmetic,
		Op:      "Percentages",
		Message: "total is zero",
	}
)
