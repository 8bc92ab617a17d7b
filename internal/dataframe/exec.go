package dataframe

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/spendscope/internal/common"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/parallel"
)

// ExecOptions controls how operators spread work over the worker pool.
// A nil *ExecOptions runs everything on the calling goroutine.
type ExecOptions struct {
	Pool              *parallel.WorkerPool
	ParallelThreshold int // minimum rows before the pool is used
	ChunkSize         int // rows per chunk; 0 means parallel.DefaultChunkSize
}

func (o *ExecOptions) poolFor(rows int) *parallel.WorkerPool {
	if o == nil || o.Pool == nil || rows < o.ParallelThreshold {
		return nil
	}
	return o.Pool
}

func (o *ExecOptions) chunkSize() int {
	if o == nil || o.ChunkSize <= 0 {
		return parallel.DefaultChunkSize
	}
	return o.ChunkSize
}

// Float64Values returns a numeric column widened to float64 together with its
// validity. valid is nil when the column has no nulls.
func (df *DataFrame) Float64Values(column string) (values []float64, valid []bool, err error) {
	return df.numericColumn("Float64Values", column)
}

func (df *DataFrame) numericColumn(op, column string) ([]float64, []bool, error) {
	s, exists := df.columns[column]
	if !exists {
		return nil, nil, dferrors.NewColumnNotFoundError(op, column)
	}

	arr := s.Array()
	defer arr.Release()

	values := make([]float64, arr.Len())
	var valid []bool
	if arr.NullN() > 0 {
		valid = make([]bool, arr.Len())
	}

	var value func(int) float64
	switch typed := arr.(type) {
	case *array.Int64:
		value = func(i int) float64 { return float64(typed.Value(i)) }
	case *array.Float64:
		value = typed.Value
	default:
		return nil, nil, dferrors.NewSchemaError(op, column,
			fmt.Sprintf("expected a numeric column, got %s", arr.DataType()))
	}

	for i := range values {
		if arr.IsNull(i) {
			continue
		}
		values[i] = value(i)
		if valid != nil {
			valid[i] = true
		}
	}
	return values, valid, nil
}

// Sum adds the non-null values of a numeric column.
func (df *DataFrame) Sum(column string) (float64, error) {
	values, valid, err := df.numericColumn("Sum", column)
	if err != nil {
		return 0, err
	}
	present := values[:0]
	for i, v := range values {
		if valid == nil || valid[i] {
			present = append(present, v)
		}
	}
	return common.Sum(present), nil
}
