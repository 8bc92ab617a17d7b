// Package config provides configuration management for spendscope runs
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColorMode controls colorized report headers
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config represents the configuration of one analytics run
type Config struct {
	// Input Configuration
	UsersPath     string   `json:"users_path" yaml:"users_path"`         // Users CSV
	PurchasesPath string   `json:"purchases_path" yaml:"purchases_path"` // Purchases CSV
	ProductsPath  string   `json:"products_path" yaml:"products_path"`   // Products CSV
	NullValues    []string `json:"null_values" yaml:"null_values"`       // Field values read as null

	// Analysis Configuration
	AgeMin      int64 `json:"age_min" yaml:"age_min"`           // Inclusive lower age bound
	AgeMax      int64 `json:"age_max" yaml:"age_max"`           // Inclusive upper age bound
	TopN        int   `json:"top_n" yaml:"top_n"`               // Categories in the ranking
	PreviewRows int   `json:"preview_rows" yaml:"preview_rows"` // Rows shown per table preview

	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum rows to trigger parallel processing
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	ChunkSize         int `json:"chunk_size" yaml:"chunk_size"`                 // Rows per chunk for parallel processing

	// Output and Debugging Configuration
	Color             ColorMode `json:"color" yaml:"color"`                           // auto, always or never
	VerboseLogging    bool      `json:"verbose" yaml:"verbose"`                       // Enable debug logging
	MetricsCollection bool      `json:"metrics_collection" yaml:"metrics_collection"` // Log per-stage metrics
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// ConfigValidator validates and resolves configuration against the host
type ConfigValidator struct {
	systemInfo SystemInfo
}

// Default configuration values
const (
	DefaultUsersPath         = "data/users.csv"
	DefaultPurchasesPath     = "data/purchases.csv"
	DefaultProductsPath      = "data/products.csv"
	DefaultAgeMin            = 18
	DefaultAgeMax            = 25
	DefaultTopN              = 3
	DefaultPreviewRows       = 10
	DefaultParallelThreshold = 1000
	DefaultChunkSize         = 1000

	envPrefix = "SPENDSCOPE_"
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		UsersPath:     DefaultUsersPath,
		PurchasesPath: DefaultPurchasesPath,
		ProductsPath:  DefaultProductsPath,
		NullValues:    []string{""},

		AgeMin:      DefaultAgeMin,
		AgeMax:      DefaultAgeMax,
		TopN:        DefaultTopN,
		PreviewRows: DefaultPreviewRows,

		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect
		ChunkSize:         DefaultChunkSize,

		Color:             ColorAuto,
		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.UsersPath == "" || c.PurchasesPath == "" || c.ProductsPath == "" {
		return fmt.Errorf("input paths must not be empty")
	}

	if c.AgeMin < 0 {
		return fmt.Errorf("AgeMin must be non-negative, got %d", c.AgeMin)
	}

	if c.AgeMin > c.AgeMax {
		return fmt.Errorf("AgeMin (%d) must not exceed AgeMax (%d)", c.AgeMin, c.AgeMax)
	}

	if c.TopN <= 0 {
		return fmt.Errorf("TopN must be positive, got %d", c.TopN)
	}

	if c.PreviewRows < 0 {
		return fmt.Errorf("PreviewRows must be non-negative, got %d", c.PreviewRows)
	}

	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("Color must be one of auto, always, never, got %q", c.Color)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.UsersPath == "" {
		c.UsersPath = defaults.UsersPath
	}
	if c.PurchasesPath == "" {
		c.PurchasesPath = defaults.PurchasesPath
	}
	if c.ProductsPath == "" {
		c.ProductsPath = defaults.ProductsPath
	}
	if c.NullValues == nil {
		c.NullValues = defaults.NullValues
	}
	// An explicit 0..0 age range is indistinguishable from unset
	if c.AgeMin == 0 && c.AgeMax == 0 {
		c.AgeMin = defaults.AgeMin
		c.AgeMax = defaults.AgeMax
	}
	if c.TopN == 0 {
		c.TopN = defaults.TopN
	}
	if c.PreviewRows == 0 {
		c.PreviewRows = defaults.PreviewRows
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.Color == "" {
		c.Color = defaults.Color
	}

	// Note: Boolean fields are intentionally not set to defaults here
	// This allows distinguishing between explicitly set false and unset values

	return c
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON, YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		if config, err = LoadFromJSON(data); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", filename, err)
		}
		return config, nil
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables on top of the defaults
func LoadFromEnv() Config {
	return ApplyEnv(NewConfig())
}

// ApplyEnv overrides config with any SPENDSCOPE_* environment variables that
// are set and parse. Unparsable values are ignored.
func ApplyEnv(config Config) Config {
	if val := lookup("USERS_PATH"); val != "" {
		config.UsersPath = val
	}

	if val := lookup("PURCHASES_PATH"); val != "" {
		config.PurchasesPath = val
	}

	if val := lookup("PRODUCTS_PATH"); val != "" {
		config.ProductsPath = val
	}

	if val := lookup("AGE_MIN"); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.AgeMin = parsed
		}
	}

	if val := lookup("AGE_MAX"); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.AgeMax = parsed
		}
	}

	if val := lookup("TOP_N"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.TopN = parsed
		}
	}

	if val := lookup("PREVIEW_ROWS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.PreviewRows = parsed
		}
	}

	if val := lookup("PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := lookup("WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := lookup("CHUNK_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ChunkSize = parsed
		}
	}

	if val := lookup("COLOR"); val != "" {
		config.Color = ColorMode(strings.ToLower(val))
	}

	if val := lookup("VERBOSE"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	if val := lookup("METRICS_COLLECTION"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.MetricsCollection = parsed
		}
	}

	return config
}

func lookup(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration and resolves auto-detected values.
// Warnings describe settings that are legal but probably unintended.
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	// Basic validation
	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	// Validate worker pool size
	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	if config.ChunkSize > config.ParallelThreshold {
		warnings = append(warnings,
			fmt.Sprintf("Chunk size (%d) exceeds parallel threshold (%d), small inputs run in a single chunk",
				config.ChunkSize, config.ParallelThreshold))
	}

	// Auto-adjust unset values
	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
	}

	return validated, warnings, nil
}
