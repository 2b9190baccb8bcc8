// internal/logging/context.go
package logging

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context: the active span
// and the embedding batch ID, when present.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if id := BatchIDFromContext(ctx); id != uuid.Nil {
		fields = append(fields, zap.String("batch.id", id.String()))
	}

	return fields
}

type batchCtxKey struct{}

// WithBatchID tags ctx with a fresh batch ID and returns both. An ID already
// present is kept, so nested calls share one ID.
func WithBatchID(ctx context.Context) (context.Context, uuid.UUID) {
	if id := BatchIDFromContext(ctx); id != uuid.Nil {
		return ctx, id
	}
	id := uuid.New()
	return context.WithValue(ctx, batchCtxKey{}, id), id
}

// BatchIDFromContext returns the batch ID, or uuid.Nil.
func BatchIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(batchCtxKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
