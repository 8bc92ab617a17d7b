package dataframe

import (
	"cmp"
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	dferrors "github.com/paveg/spendscope/internal/errors"
)

// SortKey names one column of a multi-key sort.
type SortKey struct {
	Column     string
	Descending bool
}

// Asc sorts column in ascending order.
func Asc(column string) SortKey { return SortKey{Column: column} }

// Desc sorts column in descending order.
func Desc(column string) SortKey { return SortKey{Column: column, Descending: true} }

// SortBy returns a new DataFrame ordered by keys, earlier keys taking
// precedence. The sort is stable and nulls always sort last.
func (df *DataFrame) SortBy(keys ...SortKey) (*DataFrame, error) {
	if len(keys) == 0 {
		return nil, dferrors.NewInvalidInputError("SortBy", "at least one sort key is required")
	}

	arrays := make([]arrow.Array, len(keys))
	defer func() {
		for _, arr := range arrays {
			if arr != nil {
				arr.Release()
			}
		}
	}()
	for i, k := range keys {
		s, ok := df.Column(k.Column)
		if !ok {
			return nil, dferrors.NewColumnNotFoundError("SortBy", k.Column)
		}
		arrays[i] = s.Array()
		if !sortable(arrays[i]) {
			return nil, dferrors.NewUnsupportedTypeError("SortBy", k.Column, arrays[i].DataType().String())
		}
	}

	indices := make([]int, df.Len())
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		ra, rb := indices[a], indices[b]
		for i, k := range keys {
			arr := arrays[i]
			nullA, nullB := arr.IsNull(ra), arr.IsNull(rb)
			switch {
			case nullA && nullB:
				continue
			case nullA:
				return false
			case nullB:
				return true
			}
			c, _ := compareRows(arr, ra, rb)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	return df.Take(indices), nil
}

func sortable(arr arrow.Array) bool {
	switch arr.(type) {
	case *array.String, *array.Int64, *array.Float64, *array.Boolean:
		return true
	default:
		return false
	}
}

// compareRows compares two non-null cells of the same array.
func compareRows(arr arrow.Array, i, j int) (int, error) {
	switch typed := arr.(type) {
	case *array.String:
		return cmp.Compare(typed.Value(i), typed.Value(j)), nil
	case *array.Int64:
		return cmp.Compare(typed.Value(i), typed.Value(j)), nil
	case *array.Float64:
		return cmp.Compare(typed.Value(i), typed.Value(j)), nil
	case *array.Boolean:
		a, b := typed.Value(i), typed.Value(j)
		switch {
		case a == b:
			return 0, nil
		case !a:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		return 0, fmt.Errorf("cannot compare %s values", arr.DataType())
	}
}
