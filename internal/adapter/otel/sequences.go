package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// TracingSequences wraps a domain.SequenceAllocator with OpenTelemetry tracing.
type TracingSequences struct {
	next   domain.SequenceAllocator
	tracer trace.Tracer
}

// Compile-time check: TracingSequences implements domain.SequenceAllocator.
var _ domain.SequenceAllocator = (*TracingSequences)(nil)

// NewTracingSequences creates a tracing decorator around the given allocator.
func NewTracingSequences(next domain.SequenceAllocator) *TracingSequences {
	return &TracingSequences{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (s *TracingSequences) Next(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "SequenceAllocator.Next",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("sequence.series", string(series)),
		),
	)
	defer span.End()

	value, err := s.next.Next(ctx, tenantID, series)
	finish(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("sequence.value", value))
	}
	return value, err
}
