// Package monitoring provides per-stage metrics collection for pipeline runs.
package monitoring

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// OperationMetrics represents performance metrics for a single pipeline stage.
type OperationMetrics struct {
	Operation  string        `json:"operation"`
	Duration   time.Duration `json:"duration"`
	RowsOut    int64         `json:"rows_out"`
	MemoryUsed int64         `json:"memory_used"` // bytes allocated while the stage ran
}

// MetricsCollector collects and stores performance metrics for pipeline stages.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn, which reports the number of rows it produced,
// and returns its timing. The record is stored only when collection is
// enabled; heap statistics are read only then as well.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (int, error)) (OperationMetrics, error) {
	enabled := mc.IsEnabled()

	var memBefore runtime.MemStats
	if enabled {
		runtime.ReadMemStats(&memBefore)
	}

	start := time.Now()
	rows, err := fn()

	metrics := OperationMetrics{
		Operation: operation,
		Duration:  time.Since(start),
		RowsOut:   int64(rows),
	}
	if !enabled || err != nil {
		return metrics, err
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	metrics.MemoryUsed = int64(memAfter.TotalAlloc - memBefore.TotalAlloc) //nolint:gosec // Memory values are expected to be safe

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, metrics)
	mc.mu.Unlock()

	return metrics, nil
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalMemory int64
	var totalRows int64
	operationCounts := make(map[string]int)

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalMemory += metric.MemoryUsed
		totalRows += metric.RowsOut
		operationCounts[metric.Operation]++
	}

	return MetricsSummary{
		TotalOperations: len(mc.metrics),
		TotalDuration:   totalDuration,
		TotalMemory:     totalMemory,
		TotalRows:       totalRows,
		OperationCounts: operationCounts,
		AverageDuration: totalDuration / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	TotalRows       int64          `json:"total_rows"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}

// LogValue implements slog.LogValuer.
func (s MetricsSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("stages", s.TotalOperations),
		slog.Duration("total_duration", s.TotalDuration),
		slog.Duration("average_duration", s.AverageDuration),
		slog.Int64("rows", s.TotalRows),
		slog.Int64("bytes_allocated", s.TotalMemory),
	)
}
