// Package common holds numeric helpers shared by the table operators.
package common

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// Number is any Go type a numeric column can be summed as.
type Number interface {
	constraints.Integer | constraints.Float
}

// Round rounds f to places decimal digits, half away from zero.
//
// The float is first converted to its shortest decimal representation, so
// 2.675 (stored as 2.67499999...) rounds to 2.68 the way a reader expects.
// NaN and infinities are returned unchanged.
func Round(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	rounded, _ := decimal.NewFromFloat(f).Round(places).Float64()
	return rounded
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return Round(f, 2)
}

// Sum adds values left to right.
func Sum[T Number](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// Between reports whether lo <= v <= hi.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

// Percentage returns round(part / total * 100, 2). ok is false when total is
// zero, in which case the result is 0.
func Percentage(part, total float64) (pct float64, ok bool) {
	if total == 0 {
		return 0, false
	}
	return Round2(part / total * 100), true
}
