package io

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/spendscope/internal/dataframe"
	dferrors "github.com/paveg/spendscope/internal/errors"
	"github.com/paveg/spendscope/internal/series"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const opLoad = "Load"

// column accumulates the parsed values of one CSV column.
type column struct {
	name  string
	typ   ColumnType
	index int // position in the header

	strings []string
	ints    []int64
	floats  []float64
	bools   []bool
	valid   []bool
	nulls   int
}

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	// Strip a UTF-8 byte order mark so it does not end up in the first header
	input := transform.NewReader(r.reader, unicode.BOMOverride(transform.Nop))

	csvReader := csv.NewReader(input)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace

	header, err := csvReader.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, dferrors.NewSchemaError(opLoad, "", "missing header row")
	}
	if err != nil {
		return nil, malformed(err)
	}

	columns, err := r.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := csvReader.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		line, _ := csvReader.FieldPos(0)
		for _, col := range columns {
			if err := r.appendField(col, record[col.index], line); err != nil {
				return nil, err
			}
		}
	}

	return r.buildDataFrame(columns), nil
}

// resolveColumns maps the header onto the schema. Every declared field must
// appear exactly once; undeclared columns are read as strings.
func (r *CSVReader) resolveColumns(header []string) ([]*column, error) {
	seen := make(map[string]bool, len(header))
	columns := make([]*column, 0, len(header))

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, dferrors.NewSchemaError(opLoad, "", fmt.Sprintf("header column %d has no name", i+1))
		}
		if seen[name] {
			return nil, dferrors.NewSchemaError(opLoad, name, "duplicate header column")
		}
		seen[name] = true

		typ := String
		if field, ok := r.schema.Lookup(name); ok {
			typ = field.Type
		}
		columns = append(columns, &column{name: name, typ: typ, index: i})
	}

	for _, field := range r.schema.Fields {
		if !seen[field.Name] {
			return nil, dferrors.NewColumnNotFoundError(opLoad, field.Name)
		}
	}
	return columns, nil
}

func (r *CSVReader) isNull(value string) bool {
	for _, token := range r.options.NullValues {
		if value == token {
			return true
		}
	}
	return false
}

// appendField parses one field into col.
func (r *CSVReader) appendField(col *column, raw string, line int) error {
	value := strings.TrimSpace(raw)
	null := r.isNull(value)
	col.valid = append(col.valid, !null)
	if null {
		col.nulls++
	}

	var err error
	switch col.typ {
	case String:
		col.strings = append(col.strings, value)
	case Int64:
		var v int64
		if !null {
			v, err = strconv.ParseInt(value, 10, 64)
		}
		col.ints = append(col.ints, v)
	case Float64:
		var v float64
		if !null {
			v, err = strconv.ParseFloat(value, 64)
		}
		col.floats = append(col.floats, v)
	case Bool:
		var v bool
		if !null {
			v, err = strconv.ParseBool(value)
		}
		col.bools = append(col.bools, v)
	default:
		return dferrors.NewUnsupportedTypeError(opLoad, col.name, col.typ.String())
	}

	if err != nil {
		return &dferrors.DataFrameError{
			Kind:    dferrors.KindSchema,
			Op:      opLoad,
			Column:  col.name,
			Message: fmt.Sprintf("line %d: cannot parse %q as %s", line, value, col.typ),
			Cause:   err,
		}
	}
	return nil
}

// buildDataFrame turns the accumulated columns into Arrow-backed series.
func (r *CSVReader) buildDataFrame(columns []*column) *dataframe.DataFrame {
	list := make([]dataframe.ISeries, 0, len(columns))
	for _, col := range columns {
		valid := col.valid
		if col.nulls == 0 {
			valid = nil
		}

		switch col.typ {
		case Int64:
			list = append(list, series.NewNullable(col.name, orEmpty(col.ints), valid, r.mem))
		case Float64:
			list = append(list, series.NewNullable(col.name, orEmpty(col.floats), valid, r.mem))
		case Bool:
			list = append(list, series.NewNullable(col.name, orEmpty(col.bools), valid, r.mem))
		default:
			list = append(list, series.NewNullable(col.name, orEmpty(col.strings), valid, r.mem))
		}
	}
	return dataframe.NewWithAllocator(r.mem, list...)
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

// malformed classifies csv package parse errors (bare quotes, ragged rows).
func malformed(err error) error {
	return &dferrors.DataFrameError{
		Kind:    dferrors.KindSchema,
		Op:      opLoad,
		Message: "malformed CSV",
		Cause:   err,
	}
}

// ReadCSVFile reads the CSV file at path against schema. A missing or
// unreadable file is an I/O error; content problems are schema errors.
func ReadCSVFile(path string, schema Schema, options CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dferrors.NewIOError(opLoad, path, err)
	}
	defer f.Close()

	df, err := NewCSVReader(f, schema, options, mem).Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// Source names one table to load.
type Source struct {
	Name   string
	Path   string
	Schema Schema
}

// LoadTables reads every source concurrently. Results are returned in source
// order. The first failure cancels the remaining reads and every table
// already loaded is released.
func LoadTables(ctx context.Context, sources []Source, options CSVOptions, mem memory.Allocator) ([]*dataframe.DataFrame, error) {
	tables := make([]*dataframe.DataFrame, len(sources))
	g, ctx := errgroup.WithContext(ctx)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			df, err := ReadCSVFile(src.Path, src.Schema, options, mem)
			if err != nil {
				return fmt.Errorf("loading %s: %w", src.Name, err)
			}
			tables[i] = df
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, df := range tables {
			if df != nil {
				df.Release()
			}
		}
		return nil, err
	}
	return tables, nil
}
