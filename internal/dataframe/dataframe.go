// Package dataframe provides immutable, Arrow-backed tables and the
// relational operators the analytics pipeline is built from: null dropping,
// inner joins, range filters, derived columns, grouped sums and sorting.
//
// Every operator returns a new DataFrame and leaves its receiver untouched.
// Columns that pass through unchanged are shared by retaining the underlying
// Arrow array, so each DataFrame must still be released exactly once. New
// columns are allocated with the allocator of the frame they derive from.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
	mem     memory.Allocator
}

// New creates a new DataFrame from a slice of ISeries. The DataFrame takes
// ownership of the series and releases them in Release. Derived frames
// allocate with a Go allocator.
func New(series ...ISeries) *DataFrame {
	return NewWithAllocator(memory.DefaultAllocator, series...)
}

// NewWithAllocator is New with the allocator every derived frame uses for
// the columns it creates.
func NewWithAllocator(mem memory.Allocator, series ...ISeries) *DataFrame {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, dup := columns[name]; !dup {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
		mem:     mem,
	}
}

// Allocator returns the allocator derived frames use.
func (df *DataFrame) Allocator() memory.Allocator {
	return df.mem
}

// derive builds a frame that inherits df's allocator.
func (df *DataFrame) derive(series ...ISeries) *DataFrame {
	return NewWithAllocator(df.mem, series...)
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.order)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		s, exists := df.columns[name]
		if !exists {
			releaseAll(selected)
			return nil, dferrors.NewColumnNotFoundError("Select", name)
		}
		selected = append(selected, share(s, name))
	}
	return df.derive(selected...), nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// shareAll returns a frame sharing every column of df.
func (df *DataFrame) shareAll() *DataFrame {
	shared := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		shared = append(shared, share(df.columns[name], name))
	}
	return df.derive(shared...)
}

// Head returns the first n rows (all rows when n exceeds Len)
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Slice creates a new DataFrame containing rows from start (inclusive) to end
// (exclusive). The range is clamped to the frame; the schema is always kept.
func (df *DataFrame) Slice(start, end int) *DataFrame {
	length := df.Len()
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if end < start {
		end = start
	}

	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return df.Take(indices)
}

// Take gathers the given row indices into a new DataFrame, preserving nulls.
func (df *DataFrame) Take(indices []int) *DataFrame {
	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		taken = append(taken, gather(df.columns[name], name, indices, df.mem))
	}
	return df.derive(taken...)
}

// withColumn returns a frame with s appended, or replacing the column of the
// same name in place. Existing columns are shared.
func (df *DataFrame) withColumn(s ISeries) *DataFrame {
	result := make([]ISeries, 0, len(df.order)+1)
	replaced := false
	for _, name := range df.order {
		if name == s.Name() {
			result = append(result, s)
			replaced = true
			continue
		}
		result = append(result, share(df.columns[name], name))
	}
	if !replaced {
		result = append(result, s)
	}
	return df.derive(result...)
}

// WithColumn returns a new DataFrame that also holds s. A column with the
// same name is replaced at its original position. s must match Len.
func (df *DataFrame) WithColumn(s ISeries) (*DataFrame, error) {
	if df.Width() > 0 && s.Len() != df.Len() {
		return nil, dferrors.ErrMismatchedLength
	}
	return df.withColumn(s), nil
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}

// share wraps the array behind s in a new series named name that holds its
// own reference, so both owners can be released independently.
func share(s ISeries, name string) ISeries {
	arr := s.Array()
	switch arr.(type) {
	case *array.String:
		return series.FromArray[string](name, arr)
	case *array.Int64:
		return series.FromArray[int64](name, arr)
	case *array.Float64:
		return series.FromArray[float64](name, arr)
	case *array.Boolean:
		return series.FromArray[bool](name, arr)
	default:
		arr.Release()
		panic(fmt.Sprintf("share: unsupported array type %T", arr))
	}
}

// gather copies the rows at indices out of s into a new series.
func gather(s ISeries, name string, indices []int, mem memory.Allocator) ISeries {
	arr := s.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return gatherTyped(name, arr, indices, mem, typed.Value)
	case *array.Int64:
		return gatherTyped(name, arr, indices, mem, typed.Value)
	case *array.Float64:
		return gatherTyped(name, arr, indices, mem, typed.Value)
	case *array.Boolean:
		return gatherTyped(name, arr, indices, mem, typed.Value)
	default:
		panic(fmt.Sprintf("gather: unsupported array type %T", arr))
	}
}

func gatherTyped[T any](
	name string, arr arrow.Array, indices []int, mem memory.Allocator, value func(int) T,
) ISeries {
	values := make([]T, len(indices))
	var valid []bool
	if arr.NullN() > 0 {
		valid = make([]bool, len(indices))
	}

	for i, row := range indices {
		if arr.IsNull(row) {
			continue
		}
		values[i] = value(row)
		if valid != nil {
			valid[i] = true
		}
	}
	return series.NewNullable(name, values, valid, mem)
}

func releaseAll(list []ISeries) {
	for _, s := range list {
		s.Release()
	}
}
