/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// AttributeEnricher adds labels to the base attributes (model, tool, type)
// of every recording. It must only add bounded labels.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// GenAI provides OpenTelemetry metrics for traced agent workflows: token
// usage, cost, tool calls, and finished components. If a counter cannot be
// created it degrades to a no-op rather than failing.
type GenAI struct {
	meter             metric.Meter
	promptTokens      metric.Int64Counter
	completionTokens  metric.Int64Counter
	cost              metric.Float64Counter
	toolCallCounter   metric.Int64Counter
	componentCounter  metric.Int64Counter
	componentDuration metric.Float64Histogram
	attrEnricher      AttributeEnricher
}

// NewGenAI creates a new GenAI metrics instance with the specified meter name.
//
// The model name is a dimension on the recorded metrics rather than part of
// the meter name, so one meter serves every provider.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	cost, err := meter.Float64Counter("genai.cost",
		metric.WithDescription("The cost of llm calls"),
		metric.WithUnit("{USD}"))
	if err != nil {
		slog.Warn("Failed to create cost counter, metrics will be disabled", "error", err, "meter", meterName)
		cost = noop.Float64Counter{}
	}

	toolCallCounter, err := meter.Int64Counter("genai.tool.calls",
		metric.WithDescription("The number of tool calls made during execution"),
		metric.WithUnit("{calls}"))
	if err != nil {
		slog.Warn("Failed to create tool call counter, metrics will be disabled", "error", err, "meter", meterName)
		toolCallCounter = noop.Int64Counter{}
	}

	componentCounter, err := meter.Int64Counter("genai.components",
		metric.WithDescription("The number of traced components finished"),
		metric.WithUnit("{components}"))
	if err != nil {
		slog.Warn("Failed to create component counter, metrics will be disabled", "error", err, "meter", meterName)
		componentCounter = noop.Int64Counter{}
	}

	componentDuration, err := meter.Float64Histogram("genai.component.duration",
		metric.WithDescription("The wall time of traced components"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("Failed to create component duration histogram, metrics will be disabled", "error", err, "meter", meterName)
		componentDuration = noop.Float64Histogram{}
	}

	return &GenAI{
		meter:             meter,
		promptTokens:      promptTokens,
		completionTokens:  completionTokens,
		cost:              cost,
		toolCallCounter:   toolCallCounter,
		componentCounter:  componentCounter,
		componentDuration: componentDuration,
	}
}

// SetAttributeEnricher sets the attribute enricher for this metrics instance.
// The enricher is called before recording each metric to add contextual
// attributes such as the project and dataset.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records prompt and completion token usage for model.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordCost records the USD cost of a call to model.
func (m *GenAI) RecordCost(ctx context.Context, model string, usd float64, attrs ...attribute.KeyValue) {
	if usd <= 0 {
		return
	}
	m.cost.Add(ctx, usd, m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs))
}

// RecordToolCall records a tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, toolName string, attrs ...attribute.KeyValue) {
	m.toolCallCounter.Add(ctx, 1, m.attributes(ctx, []attribute.KeyValue{attribute.String("tool", toolName)}, attrs))
}

// RecordComponent records a finished component of the given type.
func (m *GenAI) RecordComponent(ctx context.Context, componentType string, failed bool, seconds float64, attrs ...attribute.KeyValue) {
	status := "ok"
	if failed {
		status = "error"
	}
	opt := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("type", componentType),
		attribute.String("status", status),
	}, attrs)
	m.componentCounter.Add(ctx, 1, opt)
	m.componentDuration.Record(ctx, seconds, opt)
}
