// Package validation provides argument checks shared by the table operators
// and the analytics stages. Every failure is a DataFrameError so callers can
// classify it by kind.
package validation

import (
	"fmt"

	"github.com/paveg/spendscope/internal/errors"
	"golang.org/x/exp/constraints"
)

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the DataFrame
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// RangeValidator validates that lo <= hi
type RangeValidator[T constraints.Ordered] struct {
	lo, hi T
	op     string
}

// NewRangeValidator creates a validator for a closed range
func NewRangeValidator[T constraints.Ordered](lo, hi T, op string) *RangeValidator[T] {
	return &RangeValidator[T]{lo: lo, hi: hi, op: op}
}

// Validate checks the bounds order
func (v *RangeValidator[T]) Validate() error {
	if v.lo > v.hi {
		return errors.NewInvalidInputError(v.op, fmt.Sprintf("lower bound %v exceeds upper bound %v", v.lo, v.hi))
	}
	return nil
}

// PositiveValidator validates that a count is greater than zero
type PositiveValidator struct {
	name  string
	value int
	op    string
}

// NewPositiveValidator creates a validator for a named count
func NewPositiveValidator(name string, value int, op string) *PositiveValidator {
	return &PositiveValidator{name: name, value: value, op: op}
}

// Validate checks the count
func (v *PositiveValidator) Validate() error {
	if v.value <= 0 {
		return errors.NewInvalidInputError(v.op, fmt.Sprintf("%s must be positive, got %d", v.name, v.value))
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateRange is a convenience function for range validation
func ValidateRange[T constraints.Ordered](lo, hi T, op string) error {
	return NewRangeValidator(lo, hi, op).Validate()
}

// ValidatePositive is a convenience function for count validation
func ValidatePositive(name string, value int, op string) error {
	return NewPositiveValidator(name, value, op).Validate()
}
