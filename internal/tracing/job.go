package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func StartPipelineSpan(ctx context.Context, jobID, engine string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("engine", engine),
	)
	return ctx, span
}

func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "pipeline."+stage)
	span.SetAttributes(attribute.String("pipeline.stage", stage))
	return ctx, span
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
