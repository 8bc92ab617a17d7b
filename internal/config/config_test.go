package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/spendscope/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	config := config.NewConfig()

	assert.Equal(t, "data/users.csv", config.UsersPath)
	assert.Equal(t, "data/purchases.csv", config.PurchasesPath)
	assert.Equal(t, "data/products.csv", config.ProductsPath)
	assert.Equal(t, []string{""}, config.NullValues)
	assert.Equal(t, int64(18), config.AgeMin)
	assert.Equal(t, int64(25), config.AgeMax)
	assert.Equal(t, 3, config.TopN)
	assert.Equal(t, 10, config.PreviewRows)
	assert.Equal(t, 1000, config.ParallelThreshold)
	assert.Equal(t, 0, config.WorkerPoolSize) // 0 means auto-detect
	assert.Equal(t, 1000, config.ChunkSize)
	assert.Equal(t, "auto", string(config.Color))
	assert.False(t, config.VerboseLogging)
	assert.False(t, config.MetricsCollection)

	require.NoError(t, config.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(c *config.Config)
		expectedError string
	}{
		{
			name:          "valid config",
			modify:        func(c *config.Config) { c.WorkerPoolSize = 4 },
			expectedError: "",
		},
		{
			name:          "empty path",
			modify:        func(c *config.Config) { c.UsersPath = "" },
			expectedError: "input paths must not be empty",
		},
		{
			name:          "negative age",
			modify:        func(c *config.Config) { c.AgeMin = -1 },
			expectedError: "AgeMin must be non-negative, got -1",
		},
		{
			name:          "inverted age range",
			modify:        func(c *config.Config) { c.AgeMin, c.AgeMax = 30, 20 },
			expectedError: "AgeMin (30) must not exceed AgeMax (20)",
		},
		{
			name:          "zero top n",
			modify:        func(c *config.Config) { c.TopN = 0 },
			expectedError: "TopN must be positive, got 0",
		},
		{
			name:          "negative preview rows",
			modify:        func(c *config.Config) { c.PreviewRows = -2 },
			expectedError: "PreviewRows must be non-negative, got -2",
		},
		{
			name:          "negative parallel threshold",
			modify:        func(c *config.Config) { c.ParallelThreshold = -1 },
			expectedError: "ParallelThreshold must be positive, got -1",
		},
		{
			name:          "negative worker pool size",
			modify:        func(c *config.Config) { c.WorkerPoolSize = -1 },
			expectedError: "WorkerPoolSize must be non-negative, got -1",
		},
		{
			name:          "zero chunk size",
			modify:        func(c *config.Config) { c.ChunkSize = 0 },
			expectedError: "ChunkSize must be positive, got 0",
		},
		{
			name:          "unknown color mode",
			modify:        func(c *config.Config) { c.Color = "sometimes" },
			expectedError: `Color must be one of auto, always, never, got "sometimes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.NewConfig()
			tt.modify(&c)

			err := c.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, err.Error())
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	partial := config.Config{
		UsersPath:      "custom/users.csv",
		TopN:           5,
		VerboseLogging: true,
	}

	result := partial.WithDefaults()

	assert.Equal(t, "custom/users.csv", result.UsersPath)
	assert.Equal(t, "data/purchases.csv", result.PurchasesPath)
	assert.Equal(t, 5, result.TopN)
	assert.Equal(t, int64(18), result.AgeMin)
	assert.Equal(t, int64(25), result.AgeMax)
	assert.Equal(t, 10, result.PreviewRows)
	assert.Equal(t, 1000, result.ChunkSize)
	assert.Equal(t, config.ColorAuto, result.Color)
	assert.Equal(t, []string{""}, result.NullValues)
	assert.True(t, result.VerboseLogging)
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{"top_n": 2, "age_min": 20, "age_max": 30, "color": "never"}`)

	c, err := config.LoadFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 2, c.TopN)
	assert.Equal(t, int64(20), c.AgeMin)
	assert.Equal(t, int64(30), c.AgeMax)
	assert.Equal(t, config.ColorNever, c.Color)
	assert.Equal(t, "data/users.csv", c.UsersPath)

	_, err = config.LoadFromJSON([]byte(`{"top_n": "three"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON configuration")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "spendscope.yaml")
		content := `
users_path: fixtures/users.csv
null_values: ["", "NA", "null"]
worker_pool_size: 2
verbose: true
metrics_collection: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		c, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "fixtures/users.csv", c.UsersPath)
		assert.Equal(t, []string{"", "NA", "null"}, c.NullValues)
		assert.Equal(t, 2, c.WorkerPoolSize)
		assert.True(t, c.VerboseLogging)
		assert.True(t, c.MetricsCollection)
		assert.Equal(t, 3, c.TopN)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "spendscope.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"preview_rows": 5}`), 0o600))

		c, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 5, c.PreviewRows)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"top_n": "three"}`), 0o600))

		_, err := config.LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.json")
		assert.Contains(t, err.Error(), "parsing JSON configuration")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "spendscope.toml")
		require.NoError(t, os.WriteFile(path, []byte("top_n = 3"), 0o600))

		_, err := config.LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file format: .toml")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yml")
		require.NoError(t, os.WriteFile(path, []byte("top_n: [1, 2"), 0o600))

		_, err := config.LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPENDSCOPE_USERS_PATH", "/tmp/users.csv")
	t.Setenv("SPENDSCOPE_AGE_MIN", "21")
	t.Setenv("SPENDSCOPE_AGE_MAX", "40")
	t.Setenv("SPENDSCOPE_TOP_N", "5")
	t.Setenv("SPENDSCOPE_WORKER_POOL_SIZE", "3")
	t.Setenv("SPENDSCOPE_COLOR", "ALWAYS")
	t.Setenv("SPENDSCOPE_VERBOSE", "true")
	t.Setenv("SPENDSCOPE_CHUNK_SIZE", "not-a-number")

	c := config.LoadFromEnv()

	assert.Equal(t, "/tmp/users.csv", c.UsersPath)
	assert.Equal(t, int64(21), c.AgeMin)
	assert.Equal(t, int64(40), c.AgeMax)
	assert.Equal(t, 5, c.TopN)
	assert.Equal(t, 3, c.WorkerPoolSize)
	assert.Equal(t, config.ColorAlways, c.Color)
	assert.True(t, c.VerboseLogging)
	// unparsable values keep the default
	assert.Equal(t, 1000, c.ChunkSize)
}

func TestApplyEnvOverridesFileConfig(t *testing.T) {
	t.Setenv("SPENDSCOPE_TOP_N", "1")

	base := config.NewConfig()
	base.TopN = 7
	base.PreviewRows = 4

	c := config.ApplyEnv(base)
	assert.Equal(t, 1, c.TopN)
	assert.Equal(t, 4, c.PreviewRows)
}

func TestConfigValidator(t *testing.T) {
	validator := config.NewConfigValidator()

	t.Run("auto-detects worker pool size", func(t *testing.T) {
		resolved, warnings, err := validator.Validate(config.NewConfig())
		require.NoError(t, err)
		assert.Equal(t, config.GetSystemInfo().CPUCount, resolved.WorkerPoolSize)
		assert.Empty(t, warnings)
	})

	t.Run("warns on oversized pool and chunk", func(t *testing.T) {
		c := config.NewConfig()
		c.WorkerPoolSize = config.GetSystemInfo().CPUCount*2 + 1
		c.ChunkSize = 5000

		resolved, warnings, err := validator.Validate(c)
		require.NoError(t, err)
		assert.Equal(t, c.WorkerPoolSize, resolved.WorkerPoolSize)
		assert.Len(t, warnings, 2)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		c := config.NewConfig()
		c.TopN = -1

		_, _, err := validator.Validate(c)
		require.Error(t, err)
	})
}
