package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskchat"

// Metrics holds all taskchat metric instruments.
type Metrics struct {
	TurnsStarted      metric.Int64Counter
	TurnsCompleted    metric.Int64Counter
	TurnsFailed       metric.Int64Counter
	ToolCalls         metric.Int64Counter
	TurnDuration      metric.Float64Histogram
	ReasoningDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TurnsStarted, err = meter.Int64Counter("taskchat.turns.started",
		metric.WithDescription("Number of chat turns started"))
	if err != nil {
		return nil, err
	}

	m.TurnsCompleted, err = meter.Int64Counter("taskchat.turns.completed",
		metric.WithDescription("Number of chat turns completed"))
	if err != nil {
		return nil, err
	}

	m.TurnsFailed, err = meter.Int64Counter("taskchat.turns.failed",
		metric.WithDescription("Number of chat turns failed"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("taskchat.toolcalls",
		metric.WithDescription("Number of task tool calls executed"))
	if err != nil {
		return nil, err
	}

	m.TurnDuration, err = meter.Float64Histogram("taskchat.turn.duration_seconds",
		metric.WithDescription("Chat turn duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ReasoningDuration, err = meter.Float64Histogram("taskchat.reasoning.duration_seconds",
		metric.WithDescription("Reasoning provider round-trip duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
