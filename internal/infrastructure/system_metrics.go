package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime gauges for the process
type SystemMetrics struct {
	goroutines    metric.Int64Gauge
	heapAlloc     metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	gcCount       metric.Int64Gauge
	processUptime metric.Float64Gauge
}

// SystemStats is a snapshot of the values last recorded
type SystemStats struct {
	Goroutines int
	HeapAlloc  uint64
	Sys        uint64
	NumGC      uint32
	Uptime     time.Duration
}

// NewSystemMetrics creates the runtime instruments on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	sm := &SystemMetrics{}
	var err error

	sm.goroutines, err = meter.Int64Gauge("warrantysync.runtime.goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutines gauge: %w", err)
	}

	sm.heapAlloc, err = meter.Int64Gauge("warrantysync.runtime.heap_alloc",
		metric.WithDescription("Heap bytes allocated by the Go runtime"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap gauge: %w", err)
	}

	sm.memorySystem, err = meter.Int64Gauge("warrantysync.runtime.memory_sys",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create memory gauge: %w", err)
	}

	sm.gcCount, err = meter.Int64Gauge("warrantysync.runtime.gc_cycles",
		metric.WithDescription("Completed GC cycles"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gc gauge: %w", err)
	}

	sm.processUptime, err = meter.Float64Gauge("warrantysync.process.uptime",
		metric.WithDescription("Seconds since the process started"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	return sm, nil
}

// Collect records the current runtime values
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		Uptime:     time.Since(startTime),
	}

	sm.goroutines.Record(ctx, int64(stats.Goroutines))
	sm.heapAlloc.Record(ctx, int64(stats.HeapAlloc))
	sm.memorySystem.Record(ctx, int64(stats.Sys))
	sm.gcCount.Record(ctx, int64(stats.NumGC))
	sm.processUptime.Record(ctx, stats.Uptime.Seconds())

	return stats
}

// SystemMetricsCollector collects runtime metrics on an interval
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	interval  time.Duration
	startTime time.Time
}

// NewSystemMetricsCollector creates a collector that samples every interval
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &SystemMetricsCollector{
		metrics:   metrics,
		interval:  interval,
		startTime: time.Now(),
	}, nil
}

// Start collects immediately and then on every tick until ctx is done
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	smc.metrics.Collect(ctx, smc.startTime)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			smc.metrics.Collect(ctx, smc.startTime)
		}
	}
}
