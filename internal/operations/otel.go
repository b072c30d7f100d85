package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/infrastructure"
)

const (
	TracerName = "glucoreport.pipeline"
)

// PipelineTracer provides OpenTelemetry instrumentation for report runs.
type PipelineTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.ReportMetrics
}

// NewPipelineTracer creates a tracer recording into metrics. With nil
// metrics the instruments are created on the global meter provider.
func NewPipelineTracer(metrics *infrastructure.ReportMetrics) (*PipelineTracer, error) {
	if metrics == nil {
		var err error
		if metrics, err = infrastructure.NewReportMetrics(nil); err != nil {
			return nil, err
		}
	}
	return &PipelineTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}, nil
}

// StartRun creates the span covering a whole run.
func (pt *PipelineTracer) StartRun(ctx context.Context, runID string, inputs int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "report.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.inputs", inputs),
		),
	)
}

// FinishRun records the outcome of a run on span and in the run metrics.
func (pt *PipelineTracer) FinishRun(ctx context.Context, span trace.Span, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", string(apperrors.TypeOf(err))))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(
		attribute.String("run.outcome", outcome),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	pt.metrics.RunsTotal.Add(ctx, 1, attrs)
	pt.metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// Stage starts a span for one phase. The returned function ends it and
// records the stage duration.
func (pt *PipelineTracer) Stage(ctx context.Context, phase Phase) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := pt.tracer.Start(ctx, "report.stage."+string(phase),
		trace.WithAttributes(attribute.String("stage", string(phase))),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		pt.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", string(phase))))
		span.End()
	}
}

// RecordLoad records rows loaded and files skipped.
func (pt *PipelineTracer) RecordLoad(ctx context.Context, rows, skipped int) {
	if rows > 0 {
		pt.metrics.RowsLoaded.Add(ctx, int64(rows))
	}
	if skipped > 0 {
		pt.metrics.FilesSkipped.Add(ctx, int64(skipped))
	}
	trace.SpanFromContext(ctx).AddEvent("dataset.loaded", trace.WithAttributes(
		attribute.Int("rows", rows),
		attribute.Int("skipped", skipped),
	))
}

// RecordChartFallback counts a chart replaced by the placeholder.
func (pt *PipelineTracer) RecordChartFallback(ctx context.Context, chart string) {
	pt.metrics.ChartFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("chart", chart)))
}

// RecordDroppedUpdate counts a progress update discarded by the broadcaster.
func (pt *PipelineTracer) RecordDroppedUpdate() {
	pt.metrics.DroppedUpdates.Add(context.Background(), 1)
}
