package dataframe

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	xxhash "github.com/cespare/xxhash/v2"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/parallel"
)

// Constants for the join hash map.
const (
	hashMapLoadFactor     = 0.75 // load factor before the bucket array grows
	hashMapGrowthFactor   = 2    // growth factor for hash map resize
	hashMapCapacityFactor = 1.3  // capacity factor for initial hash map size

	// RightSuffix is appended to right-side columns whose name is already
	// taken by the left side.
	RightSuffix = "_right"
)

// JoinOptions configures an inner equi-join on a single shared key column.
type JoinOptions struct {
	Key  string       // column present on both sides
	Exec *ExecOptions // optional parallel execution settings
}

// Join performs an inner join of df with right on options.Key.
//
// Only key values present on both sides produce output, and every matching
// pair produces exactly one row. Null keys never match. The key column
// appears once, first, followed by the remaining left columns and then the
// remaining right columns. Output rows follow left row order, then right
// match order, independent of how many workers probe.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	if options == nil || options.Key == "" {
		return nil, dferrors.NewInvalidInputError("Join", "a join key is required")
	}
	key := options.Key

	leftKey, ok := df.Column(key)
	if !ok {
		return nil, dferrors.NewColumnNotFoundError("Join", key)
	}
	rightKey, ok := right.Column(key)
	if !ok {
		return nil, dferrors.NewColumnNotFoundError("Join", key)
	}
	if !arrow.TypeEqual(leftKey.DataType(), rightKey.DataType()) {
		return nil, dferrors.NewSchemaError("Join", key, fmt.Sprintf(
			"key types differ: %s vs %s", leftKey.DataType(), rightKey.DataType()))
	}

	index, err := buildKeyIndex(rightKey)
	if err != nil {
		return nil, err
	}

	leftIndices, rightIndices, err := df.probe(leftKey, index, options.Exec)
	if err != nil {
		return nil, dferrors.NewInternalError("Join", err)
	}

	return df.buildJoinResult(right, key, leftIndices, rightIndices), nil
}

// joinChunkResult holds the matching row pairs found in one probe chunk.
type joinChunkResult struct {
	leftIndices  []int
	rightIndices []int
}

// probe looks up every left key in the right-side index.
func (df *DataFrame) probe(leftKey ISeries, index *keyIndex, exec *ExecOptions) ([]int, []int, error) {
	keys, err := encodeKeys(leftKey)
	if err != nil {
		return nil, nil, err
	}

	results, err := parallel.ProcessChunks(exec.poolFor(len(keys.values)), len(keys.values), exec.chunkSize(),
		func(c parallel.Chunk) joinChunkResult {
			var r joinChunkResult
			for i := c.Start; i < c.End; i++ {
				if !keys.valid(i) {
					continue
				}
				for _, rightIdx := range index.Get(keys.values[i]) {
					r.leftIndices = append(r.leftIndices, i)
					r.rightIndices = append(r.rightIndices, rightIdx)
				}
			}
			return r
		})
	if err != nil {
		return nil, nil, err
	}

	// Combine results in chunk order
	var leftIndices, rightIndices []int
	for _, r := range results {
		leftIndices = append(leftIndices, r.leftIndices...)
		rightIndices = append(rightIndices, r.rightIndices...)
	}
	return leftIndices, rightIndices, nil
}

// buildJoinResult assembles the joined frame from matched row pairs.
func (df *DataFrame) buildJoinResult(right *DataFrame, key string, leftIndices, rightIndices []int) *DataFrame {
	mem := df.mem
	out := make([]ISeries, 0, df.Width()+right.Width()-1)

	out = append(out, gather(df.columns[key], key, leftIndices, mem))
	taken := map[string]bool{key: true}

	for _, name := range df.order {
		if name == key {
			continue
		}
		out = append(out, gather(df.columns[name], name, leftIndices, mem))
		taken[name] = true
	}

	for _, name := range right.order {
		if name == key {
			continue
		}
		outName := name
		for taken[outName] {
			outName += RightSuffix
		}
		out = append(out, gather(right.columns[name], outName, rightIndices, mem))
		taken[outName] = true
	}

	return df.derive(out...)
}

// encodedKeys is a key column rendered to strings for hashing.
type encodedKeys struct {
	values []string
	nulls  []bool
}

func (k encodedKeys) valid(i int) bool {
	return k.nulls == nil || !k.nulls[i]
}

func encodeKeys(s ISeries) (encodedKeys, error) {
	arr := s.Array()
	defer arr.Release()

	var format func(int) string
	switch typed := arr.(type) {
	case *array.String:
		format = typed.Value
	case *array.Int64:
		format = func(i int) string { return strconv.FormatInt(typed.Value(i), 10) }
	case *array.Boolean:
		format = func(i int) string { return strconv.FormatBool(typed.Value(i)) }
	default:
		return encodedKeys{}, dferrors.NewUnsupportedTypeError("Join", s.Name(), arr.DataType().String())
	}

	keys := encodedKeys{values: make([]string, arr.Len())}
	if arr.NullN() > 0 {
		keys.nulls = make([]bool, arr.Len())
	}
	for i := range keys.values {
		if arr.IsNull(i) {
			keys.nulls[i] = true
			continue
		}
		keys.values[i] = format(i)
	}
	return keys, nil
}

// keyIndex maps encoded join keys to the right-side rows holding them.
// It is built once and then only read, so concurrent probes are safe.
type keyIndex struct {
	buckets    [][]hashEntry
	capacity   int
	size       int
	loadFactor float64
}

type hashEntry struct {
	key  string
	rows []int
}

func buildKeyIndex(s ISeries) (*keyIndex, error) {
	keys, err := encodeKeys(s)
	if err != nil {
		return nil, err
	}

	index := newKeyIndex(len(keys.values))
	for i, k := range keys.values {
		if keys.valid(i) {
			index.Put(k, i)
		}
	}
	return index, nil
}

func newKeyIndex(estimatedSize int) *keyIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * hashMapCapacityFactor))
	return &keyIndex{
		buckets:    make([][]hashEntry, capacity),
		capacity:   capacity,
		loadFactor: hashMapLoadFactor,
	}
}

func (ki *keyIndex) bucket(key string, capacity int) int {
	//nolint:gosec // capacity is a positive power of two
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// Put records that row holds key.
func (ki *keyIndex) Put(key string, row int) {
	b := ki.bucket(key, ki.capacity)

	for i := range ki.buckets[b] {
		if ki.buckets[b][i].key == key {
			ki.buckets[b][i].rows = append(ki.buckets[b][i].rows, row)
			return
		}
	}

	ki.buckets[b] = append(ki.buckets[b], hashEntry{key: key, rows: []int{row}})
	ki.size++

	if float64(ki.size) > float64(ki.capacity)*ki.loadFactor {
		ki.resize()
	}
}

// Get returns the rows holding key in insertion order.
func (ki *keyIndex) Get(key string) []int {
	for _, entry := range ki.buckets[ki.bucket(key, ki.capacity)] {
		if entry.key == key {
			return entry.rows
		}
	}
	return nil
}

// resize grows the bucket array and rehashes all entries.
func (ki *keyIndex) resize() {
	newCapacity := ki.capacity * hashMapGrowthFactor
	newBuckets := make([][]hashEntry, newCapacity)

	for _, bucket := range ki.buckets {
		for _, entry := range bucket {
			b := ki.bucket(entry.key, newCapacity)
			newBuckets[b] = append(newBuckets[b], entry)
		}
	}

	ki.buckets = newBuckets
	ki.capacity = newCapacity
}

// nextPowerOfTwo returns the next power of two >= n.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
