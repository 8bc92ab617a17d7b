package dataframe

import (
	"github.com/paveg/spendscope/internal/common"
	"github.com/paveg/spendscope/internal/validation"
)

// FilterBetween keeps the rows whose numeric column value lies in the closed
// range [lo, hi]. Rows with a null in the column are dropped.
func (df *DataFrame) FilterBetween(column string, lo, hi float64) (*DataFrame, error) {
	if err := validation.ValidateRange(lo, hi, "FilterBetween"); err != nil {
		return nil, err
	}

	values, valid, err := df.numericColumn("FilterBetween", column)
	if err != nil {
		return nil, err
	}

	return df.Filter(func(row int) bool {
		if valid != nil && !valid[row] {
			return false
		}
		return common.Between(values[row], lo, hi)
	}), nil
}

// Filter keeps the rows for which predicate returns true.
func (df *DataFrame) Filter(predicate func(row int) bool) *DataFrame {
	keep := make([]int, 0, df.Len())
	for i := range df.Len() {
		if predicate(i) {
			keep = append(keep, i)
		}
	}
	return df.Take(keep)
}
