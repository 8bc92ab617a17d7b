// Package io provides data input operations for DataFrames.
//
// Tables are read from delimited text against an explicit Schema: every
// declared column must be present in the header and parse as its declared
// type, while undeclared columns are kept as strings. Empty fields and the
// configured null tokens become nulls, which the cleaning stage later drops.
//
// Key components:
//   - Schema/Field for declaring column types per input table
//   - CSVReader for reading one delimited stream into a DataFrame
//   - ReadCSVFile and LoadTables for file-backed and concurrent loading
//
// Memory management: All readers allocate through the supplied Arrow
// allocator, and every returned DataFrame must be released by the caller.
package io

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ColumnType is the declared type of a CSV column.
type ColumnType int

const (
	// String columns keep the raw field text.
	String ColumnType = iota
	// Int64 columns parse base-10 integers.
	Int64
	// Float64 columns parse decimal or integer text.
	Float64
	// Bool columns parse true/false, 1/0, t/f.
	Bool
)

// String returns the type name used in error messages.
func (t ColumnType) String() string {
	switch t {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Field declares one required column.
type Field struct {
	Name string
	Type ColumnType
}

// Schema is the ordered set of columns a table must provide.
type Schema struct {
	Fields []Field
}

// NewSchema builds a Schema from fields.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// Lookup returns the declared field called name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
	// NullValues are field values (after trimming) read as null
	NullValues []string
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:        ',',
		Comment:          0,
		SkipInitialSpace: false,
		NullValues:       []string{""},
	}
}

// CSVReader reads CSV data and converts it to DataFrames
type CSVReader struct {
	reader  io.Reader
	schema  Schema
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader for the given schema and options
func NewCSVReader(reader io.Reader, schema Schema, options CSVOptions, mem memory.Allocator) *CSVReader {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	return &CSVReader{
		reader:  reader,
		schema:  schema,
		options: options,
		mem:     mem,
	}
}
