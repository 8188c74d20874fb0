package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskchat"

// StartTurnSpan starts a span for a chat turn.
func StartTurnSpan(ctx context.Context, owner string, conversationID int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "turn",
		trace.WithAttributes(
			attribute.String("turn.owner", owner),
			attribute.Int64("conversation.id", conversationID),
		),
	)
}

// StartToolCallSpan starts a span for a task tool call within a turn.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartReasoningSpan starts a span for one reasoning provider round trip.
func StartReasoningSpan(ctx context.Context, provider, model string, round int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "reasoning",
		trace.WithAttributes(
			attribute.String("reasoning.provider", provider),
			attribute.String("reasoning.model", model),
			attribute.Int("reasoning.round", round),
		),
	)
}
