package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/spendscope/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T) string {
	t.Helper()
	in := testutil.WriteInputs(t,
		"user_id,age\n1,20\n2,\n",
		"user_id,product_id,quantity\n1,1,2\n1,2,1\n",
		"product_id,category,price\n1,Books,10.0\n2,Toys,5\n",
	)
	return in.Dir
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	content := "users_path: " + filepath.Join(dir, "users.csv") + "\n" +
		"purchases_path: " + filepath.Join(dir, "purchases.csv") + "\n" +
		"products_path: " + filepath.Join(dir, "products.csv") + "\n" +
		"color: never\n"
	return testutil.WriteFile(t, dir, "spendscope.yaml", content)
}

func TestRunWithConfigFile(t *testing.T) {
	dir := writeInputs(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-config", writeConfig(t, dir)}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Users Table:")
	assert.Contains(t, out, "Users: 2\n")
	assert.Contains(t, out, "Users: 1\n")
	assert.Contains(t, out, "|   Books|                    20.0|                     80.0|")
	assert.Contains(t, out, "Top 3 product categories")
	assert.NotContains(t, out, "\x1b[")

	assert.Contains(t, stderr.String(), "stage complete")
	assert.NotContains(t, stderr.String(), "level=DEBUG")
}

func TestRunEnvOverridesAndVerbose(t *testing.T) {
	dir := writeInputs(t)
	t.Setenv("SPENDSCOPE_USERS_PATH", filepath.Join(dir, "users.csv"))
	t.Setenv("SPENDSCOPE_PURCHASES_PATH", filepath.Join(dir, "purchases.csv"))
	t.Setenv("SPENDSCOPE_PRODUCTS_PATH", filepath.Join(dir, "products.csv"))
	t.Setenv("SPENDSCOPE_COLOR", "never")
	t.Setenv("SPENDSCOPE_VERBOSE", "true")
	t.Setenv("SPENDSCOPE_TOP_N", "1")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Contains(t, stdout.String(), "Top 1 product categories")
	assert.Contains(t, stderr.String(), "level=DEBUG")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "spendscope ")
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     func(t *testing.T) []string
		contains string
	}{
		{
			name:     "unknown flag",
			args:     func(*testing.T) []string { return []string{"-rows", "5"} },
			contains: "flag provided but not defined",
		},
		{
			name:     "positional argument",
			args:     func(*testing.T) []string { return []string{"extra"} },
			contains: "unexpected arguments",
		},
		{
			name: "missing config file",
			args: func(t *testing.T) []string {
				return []string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}
			},
			contains: "reading config file",
		},
		{
			name: "missing input",
			args: func(t *testing.T) []string {
				dir := writeInputs(t)
				require.NoError(t, os.Remove(filepath.Join(dir, "products.csv")))
				return []string{"-config", writeConfig(t, dir)}
			},
			contains: "run failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args(t), &stdout, &stderr)

			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr.String(), tt.contains)
		})
	}
}
