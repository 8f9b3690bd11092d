package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats is a snapshot of the Go runtime
type SystemStats struct {
	GoRoutines    int           `json:"goroutines"`
	HeapAlloc     uint64        `json:"heap_alloc_bytes"`
	SysMemory     uint64        `json:"sys_bytes"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPause   time.Duration `json:"last_gc_pause_ns"`
	CPUCount      int           `json:"cpu_count"`
	ProcessUptime time.Duration `json:"uptime_ns"`
	Timestamp     time.Time     `json:"timestamp"`
}

// CollectSystemStats reads the runtime counters
func CollectSystemStats(startTime time.Time) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemStats{
		GoRoutines:    runtime.NumGoroutine(),
		HeapAlloc:     memStats.HeapAlloc,
		SysMemory:     memStats.Sys,
		GCCount:       memStats.NumGC,
		LastGCPause:   time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime),
		Timestamp:     time.Now(),
	}
}

// FormatStats returns the snapshot in the shape the health endpoint reports
func (stats SystemStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":       stats.GoRoutines,
		"heap_alloc_mb":    stats.HeapAlloc / 1024 / 1024,
		"sys_mb":           stats.SysMemory / 1024 / 1024,
		"gc_count":         stats.GCCount,
		"last_gc_pause_ms": stats.LastGCPause.Milliseconds(),
		"cpu_count":        stats.CPUCount,
		"uptime_seconds":   int64(stats.ProcessUptime.Seconds()),
	}
}

// RegisterSystemMetrics exposes runtime gauges that are read on every
// metrics scrape.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) error {
	goroutines, err := meter.Int64ObservableGauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return fmt.Errorf("failed to create goroutine gauge: %w", err)
	}

	heap, err := meter.Int64ObservableGauge("system_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"))
	if err != nil {
		return fmt.Errorf("failed to create memory gauge: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge("system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectSystemStats(startTime)
		o.ObserveInt64(goroutines, int64(stats.GoRoutines))
		o.ObserveInt64(heap, int64(stats.HeapAlloc))
		o.ObserveFloat64(uptime, stats.ProcessUptime.Seconds())
		return nil
	}, goroutines, heap, uptime)
	return err
}
