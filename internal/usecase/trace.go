package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer = otel.Tracer("matchday/internal/usecase")
	noopSpan      = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan opens a child span only when the caller is already traced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// expectedErrors are outcomes of normal contention or bad input; they are
// annotated on the span but do not mark it failed.
var expectedErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrConcurrencyConflict,
	ErrDuplicateEntry,
	ErrInvalidState,
	ErrInvalidPoolSize,
	ErrMethodDisabled,
}

func recordSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	for _, expected := range expectedErrors {
		if errors.Is(err, expected) {
			span.AddEvent("rejected", trace.WithAttributes(attribute.String("reason", expected.Error())))
			return
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
