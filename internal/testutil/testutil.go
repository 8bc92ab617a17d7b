// Package testutil provides common testing utilities to reduce code duplication
// across test files: leak-checked Arrow allocators, CSV fixture files and
// DataFrame assertions.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/spendscope/internal/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides a checked allocator that fails the test when
// memory is still allocated at Release.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	tb        testing.TB
}

// Release asserts that everything allocated through the context was freed.
func (tmc *TestMemoryContext) Release() {
	tmc.Allocator.AssertSize(tmc.tb, 0)
}

// SetupMemoryTest creates a leak-checked allocator for tests.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewCheckedAllocator(memory.NewGoAllocator()),
		tb:        tb,
	}
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Inputs holds the paths of the three pipeline input files.
type Inputs struct {
	Dir           string
	UsersPath     string
	PurchasesPath string
	ProductsPath  string
}

// WriteInputs writes users.csv, purchases.csv and products.csv to a fresh
// temporary directory.
func WriteInputs(tb testing.TB, users, purchases, products string) Inputs {
	tb.Helper()
	dir := tb.TempDir()
	return Inputs{
		Dir:           dir,
		UsersPath:     WriteFile(tb, dir, "users.csv", users),
		PurchasesPath: WriteFile(tb, dir, "purchases.csv", purchases),
		ProductsPath:  WriteFile(tb, dir, "products.csv", products),
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns, in order.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Equal(t, expectedColumns, df.Columns(), "columns should match")
}
