/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Totals are the running token and cost sums of a trace.
type Totals struct {
	Tokens     TokenUsage `json:"tokens"`
	Cost       Cost       `json:"cost"`
	Components int        `json:"components"`
	Errors     int        `json:"errors"`
}

// Trace is the root collector of one traced session. Components without an
// enclosing agent are appended here; nested ones arrive as children of their
// agent.
type Trace struct {
	ID         string
	Project    ProjectInfo
	StartTime  Timestamp
	EndTime    Timestamp
	Components []*Component
	Metadata   map[string]any

	mu          sync.Mutex
	totals      Totals
	metricNames map[string]int
	usedMetrics map[string]bool
	done        bool
	ctx         context.Context
	span        oteltrace.Span
}

// Payload is the serializable form of a finished trace handed to reporters.
type Payload struct {
	ID         string         `json:"id" jsonschema:"required"`
	Project    ProjectInfo    `json:"project"`
	StartTime  Timestamp      `json:"start_time"`
	EndTime    Timestamp      `json:"end_time"`
	Components []*Component   `json:"components"`
	Totals     Totals         `json:"totals"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func tracer() oteltrace.Tracer {
	return otel.Tracer("chainguard.ai.agents.agenttrace",
		oteltrace.WithInstrumentationVersion("1.0.0"))
}

// NewTrace opens a new trace for the project attached to ctx, falling back
// to project when ctx carries none.
func NewTrace(ctx context.Context, project ProjectInfo) *Trace {
	if p, ok := projectFromContext(ctx); ok {
		project = p
	}

	attrs := []attribute.KeyValue{}
	if project.ProjectName != "" {
		attrs = append(attrs, attribute.String("project_name", project.ProjectName))
	}
	if project.DatasetName != "" {
		attrs = append(attrs, attribute.String("dataset_name", project.DatasetName))
	}
	ctx, span := tracer().Start(ctx, "trace.session", oteltrace.WithAttributes(attrs...))

	return &Trace{
		ID:          uuid.NewString(),
		Project:     project,
		StartTime:   Timestamp(time.Now()),
		Components:  []*Component{},
		Metadata:    make(map[string]any),
		metricNames: make(map[string]int),
		usedMetrics: make(map[string]bool),
		ctx:         ctx,
		span:        span,
	}
}

// Context returns the context carrying the trace's otel span, so that
// component spans nest beneath it.
func (t *Trace) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// AddComponent appends a finished root-level component. It returns false,
// and drops c, once the trace is complete.
func (t *Trace) AddComponent(c *Component) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.Components = append(t.Components, c)
	return true
}

// Count records a finished component, whatever its depth, in the totals.
func (t *Trace) Count(c *Component) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals.Components++
	if c.Failed() {
		t.totals.Errors++
	}
}

// AddUsage adds one call's tokens and cost to the running totals.
func (t *Trace) AddUsage(tokens TokenUsage, cost Cost) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals.Tokens = t.totals.Tokens.Add(tokens)
	t.totals.Cost.InputCost += cost.InputCost
	t.totals.Cost.OutputCost += cost.OutputCost
	t.totals.Cost.TotalCost += cost.TotalCost
}

// Totals returns a snapshot of the running totals.
func (t *Trace) Totals() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}

// ClaimMetricName returns the name to store for a metric called base. The
// first claim keeps base; the k-th reuse becomes base_k.
func (t *Trace) ClaimMetricName(base string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.metricNames[base]
	name := metricName(base, n)
	for t.usedMetrics[name] {
		n++
		name = metricName(base, n)
	}
	t.metricNames[base] = n + 1
	t.usedMetrics[name] = true
	return name
}

func metricName(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

// Complete stamps the end time and ends the session span. It returns false
// when the trace was already complete.
func (t *Trace) Complete(ctx context.Context) bool {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return false
	}
	t.done = true
	t.EndTime = Timestamp(time.Now())
	totals := t.totals
	span := t.span
	t.mu.Unlock()

	if span != nil {
		span.SetAttributes(
			attribute.Int64("tokens.total", totals.Tokens.TotalTokens),
			attribute.Float64("cost.total", totals.Cost.TotalCost),
			attribute.Int("components", totals.Components),
		)
		if totals.Errors > 0 {
			span.SetStatus(codes.Error, fmt.Sprintf("%d components failed", totals.Errors))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
	return true
}

// Completed reports whether Complete has been called.
func (t *Trace) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Payload returns the serializable snapshot of the trace.
func (t *Trace) Payload() Payload {
	t.mu.Lock()
	defer t.mu.Unlock()

	components := make([]*Component, len(t.Components))
	copy(components, t.Components)
	metadata := make(map[string]any, len(t.Metadata))
	for k, v := range t.Metadata {
		metadata[k] = v
	}
	return Payload{
		ID:         t.ID,
		Project:    t.Project,
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		Components: components,
		Totals:     t.totals,
		Metadata:   metadata,
	}
}

// Duration returns the total duration of the trace.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.EndTime.Time().IsZero() {
		return time.Since(t.StartTime.Time())
	}
	return t.EndTime.Time().Sub(t.StartTime.Time())
}

// Walk visits every component depth first in recorded order. Returning
// false from fn skips the component's children.
func (t *Trace) Walk(fn func(c *Component, depth int) bool) {
	t.mu.Lock()
	roots := make([]*Component, len(t.Components))
	copy(roots, t.Components)
	t.mu.Unlock()

	var walk func(cs []*Component, depth int)
	walk = func(cs []*Component, depth int) {
		for _, c := range cs {
			if fn(c, depth) {
				walk(c.Children, depth+1)
			}
		}
	}
	walk(roots, 0)
}

// Find returns the component with the given id, or nil.
func (t *Trace) Find(id string) *Component {
	var found *Component
	t.Walk(func(c *Component, _ int) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// String returns a structured representation of the trace
func (t *Trace) String() string {
	var sb strings.Builder

	t.mu.Lock()
	totals := t.totals
	roots := len(t.Components)
	t.mu.Unlock()

	sb.WriteString(fmt.Sprintf("=== Trace %s ===\n", t.ID))
	if t.Project.ProjectName != "" {
		sb.WriteString(fmt.Sprintf("Project: %s\n", t.Project.ProjectName))
	}
	sb.WriteString(fmt.Sprintf("Duration: %v\n", t.Duration()))
	sb.WriteString(fmt.Sprintf("Tokens: %d (prompt %d, completion %d)\n",
		totals.Tokens.TotalTokens, totals.Tokens.PromptTokens, totals.Tokens.CompletionTokens))
	sb.WriteString(fmt.Sprintf("Cost: $%.6f\n", totals.Cost.TotalCost))

	if totals.Components == 0 && roots == 0 {
		sb.WriteString("\nNo components\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nComponents (%d):\n", totals.Components))
	t.Walk(func(c *Component, depth int) bool {
		indent := strings.Repeat("  ", depth+1)
		sb.WriteString(fmt.Sprintf("%s[%s] %s (ID: %s) %v\n", indent, c.Type, c.Name, c.ID, c.Duration()))
		if c.Info.Model != "" {
			sb.WriteString(fmt.Sprintf("%s    Model: %s\n", indent, c.Info.Model))
		}
		if c.Error != nil {
			sb.WriteString(fmt.Sprintf("%s    Error: %d %s\n", indent, c.Error.Code, c.Error.Message))
		}
		for _, m := range c.Metrics {
			sb.WriteString(fmt.Sprintf("%s    Metric %s: %.3f\n", indent, m.Name, m.Score))
		}
		return true
	})

	if len(t.Metadata) > 0 {
		sb.WriteString("\nMetadata:\n")
		for k, v := range t.Metadata {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	return sb.String()
}
