package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "warrantysync/pipeline"
	MeterName  = "warrantysync/pipeline"
)

// Metrics holds the pipeline OpenTelemetry instruments
type Metrics struct {
	Runs              metric.Int64Counter
	RunAttempts       metric.Int64Counter
	SitesProcessed    metric.Int64Counter
	SiteDuration      metric.Float64Histogram
	RowsPublished     metric.Int64Counter
	ExportAttempts    metric.Int64Counter
	DuplicatesDropped metric.Int64Counter
}

// InitializeMetrics creates the pipeline instruments on meter
func InitializeMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Runs, err = meter.Int64Counter("warrantysync.runs",
		metric.WithDescription("Supervised runs by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	m.RunAttempts, err = meter.Int64Counter("warrantysync.run.attempts",
		metric.WithDescription("Run attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run attempts counter: %w", err)
	}

	m.SitesProcessed, err = meter.Int64Counter("warrantysync.sites.processed",
		metric.WithDescription("Sites processed by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sites counter: %w", err)
	}

	m.SiteDuration, err = meter.Float64Histogram("warrantysync.site.duration",
		metric.WithDescription("Time to export, normalize and publish one site"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create site duration histogram: %w", err)
	}

	m.RowsPublished, err = meter.Int64Counter("warrantysync.rows.published",
		metric.WithDescription("Warranty rows written to the destination spreadsheet"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}

	m.ExportAttempts, err = meter.Int64Counter("warrantysync.export.attempts",
		metric.WithDescription("Portal export attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create export attempts counter: %w", err)
	}

	m.DuplicatesDropped, err = meter.Int64Counter("warrantysync.duplicates.dropped",
		metric.WithDescription("Registry devices dropped because their serial repeats within the site"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duplicates counter: %w", err)
	}

	return m, nil
}

func resultAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("result", "failure")
	}
	return attribute.String("result", "success")
}

func (m *Metrics) recordRun(ctx context.Context, outcome Outcome) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

func (m *Metrics) recordAttempt(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.RunAttempts.Add(ctx, 1, metric.WithAttributes(resultAttr(err)))
}

func (m *Metrics) recordSite(ctx context.Context, site string, duration time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("site", site), resultAttr(err))
	m.SitesProcessed.Add(ctx, 1, attrs)
	m.SiteDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.RowsPublished.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("site", site)))
	}
}

func (m *Metrics) recordExportAttempt(ctx context.Context, _ int, err error) {
	if m == nil {
		return
	}
	m.ExportAttempts.Add(ctx, 1, metric.WithAttributes(resultAttr(err)))
}

func (m *Metrics) recordDuplicates(ctx context.Context, site string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.DuplicatesDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("site", site)))
}

// traceAttempt wraps one run attempt in a span
func traceAttempt(ctx context.Context, attempt int, fn func(context.Context) error) error {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "pipeline.attempt",
		trace.WithAttributes(attribute.Int("run.attempt", attempt)),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "Run attempt completed")
	}
	return err
}

// traceSite wraps the processing of one site in a span
func traceSite(ctx context.Context, site string, devices int, fn func(context.Context) (int, error)) (int, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "pipeline.site",
		trace.WithAttributes(
			attribute.String("site.title", site),
			attribute.Int("site.devices", devices),
		),
	)
	defer span.End()

	rows, err := fn(ctx)
	span.SetAttributes(attribute.Int("site.rows", rows))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "Site published")
	}
	return rows, err
}
