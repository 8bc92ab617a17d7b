package dataframe

import (
	"github.com/paveg/spendscope/internal/common"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/parallel"
	"github.com/paveg/spendscope/internal/series"
)

// nullGroupKey cannot collide with an encoded value because encoded
// values never start with a NUL byte from CSV input.
const nullGroupKey = "\x00null"

// groupPartial accumulates one group inside one chunk.
type groupPartial struct {
	first int     // first row of the group, used to materialize the group value
	sum   float64 // sum of non-null values
	count int     // number of non-null values
}

// chunkGroups is the per-chunk aggregation state, keyed by encoded group
// value, with keys kept in first-seen order.
type chunkGroups struct {
	keys   []string
	groups map[string]*groupPartial
}

// GroupBySum groups rows by the group column and sums the numeric value
// column into a float64 column named alias, rounded half-up to 2 decimals.
//
// Output has one row per distinct group value, ordered by that value
// ascending. Null values are skipped; a group whose values are all null sums
// to null. Partial sums are computed per chunk and merged in chunk order, so
// the floating-point result does not depend on the worker count.
func (df *DataFrame) GroupBySum(group, value, alias string, exec *ExecOptions) (*DataFrame, error) {
	groupCol, ok := df.Column(group)
	if !ok {
		return nil, dferrors.NewColumnNotFoundError("GroupBySum", group)
	}
	if alias == "" || alias == group {
		return nil, dferrors.NewInvalidInputError("GroupBySum", "alias must be non-empty and differ from the group column")
	}

	keys, err := encodeKeys(groupCol)
	if err != nil {
		return nil, dferrors.NewUnsupportedTypeError("GroupBySum", group, groupCol.DataType().String())
	}
	values, valid, err := df.numericColumn("GroupBySum", value)
	if err != nil {
		return nil, err
	}

	partials, err := parallel.ProcessChunks(exec.poolFor(len(values)), len(values), exec.chunkSize(),
		func(c parallel.Chunk) chunkGroups {
			cg := chunkGroups{groups: make(map[string]*groupPartial)}
			for i := c.Start; i < c.End; i++ {
				k := nullGroupKey
				if keys.valid(i) {
					k = keys.values[i]
				}
				g, seen := cg.groups[k]
				if !seen {
					g = &groupPartial{first: i}
					cg.groups[k] = g
					cg.keys = append(cg.keys, k)
				}
				if valid == nil || valid[i] {
					g.sum += values[i]
					g.count++
				}
			}
			return cg
		})
	if err != nil {
		return nil, dferrors.NewInternalError("GroupBySum", err)
	}

	// Merge partials in chunk order
	merged := chunkGroups{groups: make(map[string]*groupPartial)}
	for _, cg := range partials {
		for _, k := range cg.keys {
			p := cg.groups[k]
			g, seen := merged.groups[k]
			if !seen {
				merged.groups[k] = &groupPartial{first: p.first, sum: p.sum, count: p.count}
				merged.keys = append(merged.keys, k)
				continue
			}
			g.sum += p.sum
			g.count += p.count
		}
	}

	firsts := make([]int, len(merged.keys))
	sums := make([]float64, len(merged.keys))
	sumValid := make([]bool, len(merged.keys))
	for i, k := range merged.keys {
		g := merged.groups[k]
		firsts[i] = g.first
		if g.count > 0 {
			sums[i] = common.Round2(g.sum)
			sumValid[i] = true
		}
	}

	unsorted := df.derive(
		gather(groupCol, group, firsts, df.mem),
		series.NewNullable(alias, sums, sumValid, df.mem),
	)
	defer unsorted.Release()

	return unsorted.SortBy(Asc(group))
}
