//nolint:testpackage // requires internal access to unexported helpers
package dataframe

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createProductsFrame(t *testing.T) *DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()
	return New(
		series.New("product_id", []int64{1, 2, 3}, mem),
		series.New("category", []string{"Books", "Toys", "Garden"}, mem),
		series.New("price", []float64{10.0, 5.5, 20.25}, mem),
	)
}

func TestNewDataFrame(t *testing.T) {
	df := createProductsFrame(t)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 3, df.Width())
	assert.Equal(t, []string{"product_id", "category", "price"}, df.Columns())
	assert.True(t, df.HasColumn("price"))
	assert.False(t, df.HasColumn("quantity"))
	assert.Contains(t, df.String(), "DataFrame[3x3]")

	empty := New()
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, "DataFrame[empty]", empty.String())
}

func TestSelect(t *testing.T) {
	df := createProductsFrame(t)
	defer df.Release()

	selected, err := df.Select("price", "category")
	require.NoError(t, err)
	defer selected.Release()

	assert.Equal(t, []string{"price", "category"}, selected.Columns())
	assert.Equal(t, 3, selected.Len())

	_, err = df.Select("missing")
	require.Error(t, err)
	assert.True(t, dferrors.IsKind(err, dferrors.KindSchema))
}

func TestSliceAndHead(t *testing.T) {
	df := createProductsFrame(t)
	defer df.Release()

	tests := []struct {
		name       string
		start, end int
		expected   []int64
	}{
		{"middle", 1, 2, []int64{2}},
		{"clamped end", 1, 10, []int64{2, 3}},
		{"negative start", -5, 1, []int64{1}},
		{"inverted", 2, 1, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sliced := df.Slice(tt.start, tt.end)
			defer sliced.Release()

			assert.Equal(t, tt.expected, int64Column(t, sliced, "product_id"))
			assert.Equal(t, 3, sliced.Width())
		})
	}

	head := df.Head(2)
	defer head.Release()
	assert.Equal(t, 2, head.Len())
}

func TestTakePreservesNulls(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(series.NewNullable("age", []int64{20, 0, 30}, []bool{true, false, true}, mem))
	defer df.Release()

	taken := df.Take([]int{1, 2})
	defer taken.Release()

	col, _ := taken.Column("age")
	assert.True(t, col.IsNull(0))
	assert.False(t, col.IsNull(1))
	assert.Equal(t, int64(30), col.(*series.Series[int64]).Value(1))
}

func TestWithColumn(t *testing.T) {
	df := createProductsFrame(t)
	defer df.Release()
	mem := memory.NewGoAllocator()

	added, err := df.WithColumn(series.New("in_stock", []bool{true, false, true}, mem))
	require.NoError(t, err)
	defer added.Release()
	assert.Equal(t, []string{"product_id", "category", "price", "in_stock"}, added.Columns())

	replaced, err := df.WithColumn(series.New("price", []float64{1, 2, 3}, mem))
	require.NoError(t, err)
	defer replaced.Release()
	assert.Equal(t, []string{"product_id", "category", "price"}, replaced.Columns())
	values, _, err := replaced.Float64Values("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, values)

	// the receiver is untouched
	original, _, err := df.Float64Values("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{10.0, 5.5, 20.25}, original)

	mismatched := series.New("short", []int64{1}, mem)
	defer mismatched.Release()
	_, err = df.WithColumn(mismatched)
	assert.ErrorIs(t, err, dferrors.ErrMismatchedLength)
}

func TestSharedColumnsReleaseIndependently(t *testing.T) {
	df := createProductsFrame(t)

	selected, err := df.Select("category")
	require.NoError(t, err)
	df.Release()

	col, ok := selected.Column("category")
	require.True(t, ok)
	assert.Equal(t, "Books", col.GetAsString(0))
	selected.Release()
}

func TestFloat64ValuesAndSum(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(
		series.NewNullable("quantity", []int64{2, 0, 3}, []bool{true, false, true}, mem),
		series.New("category", []string{"a", "b", "c"}, mem),
	)
	defer df.Release()

	values, valid, err := df.Float64Values("quantity")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0, 3}, values)
	assert.Equal(t, []bool{true, false, true}, valid)

	sum, err := df.Sum("quantity")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sum, 1e-9)

	_, err = df.Sum("category")
	require.Error(t, err)
	assert.True(t, dferrors.IsKind(err, dferrors.KindSchema))

	_, err = df.Sum("missing")
	assert.True(t, dferrors.IsKind(err, dferrors.KindSchema))
}

func TestShow(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(
		series.New("category", []string{"Books", "Electronics"}, mem),
		series.NewNullable("total", []float64{20, 0}, []bool{true, false}, mem),
	)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, df.Show(&buf, 10))

	expected := "" +
		"+-----------+-----+\n" +
		"|   category|total|\n" +
		"+-----------+-----+\n" +
		"|      Books| 20.0|\n" +
		"|Electronics| null|\n" +
		"+-----------+-----+\n" +
		"\n"
	assert.Equal(t, expected, buf.String())
}

func TestShowTruncatesRowsAndCells(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := New(series.New("name", []string{"a very long product name indeed", "b", "c"}, mem))
	defer df.Release()

	out := df.Format(2)
	assert.Contains(t, out, "|a very long produ...|")
	assert.Contains(t, out, "only showing top 2 rows\n")
	assert.NotContains(t, out, " c|")

	assert.Contains(t, df.Format(1), "only showing top 1 row\n")
	assert.NotContains(t, df.Format(0), "only showing")
}
