/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/cost"
	"chainguard.dev/spantree/agents/metrics"
	"chainguard.dev/spantree/agents/report"
	"chainguard.dev/spantree/agents/scoring"
	"chainguard.dev/spantree/agents/spanattrs"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrAlreadyStarted is returned by Start while a trace is open.
	ErrAlreadyStarted = errors.New("tracer already started")
	// ErrNotStarted is returned by Stop when no trace is open.
	ErrNotStarted = errors.New("tracer not started")
)

// Tracer observes agent, tool and llm calls and assembles them into traces.
// Between Start and Stop every traced call becomes a component of the open
// trace; outside that window traced calls run untouched.
type Tracer struct {
	cfg      Config
	project  *agenttrace.ProjectInfo
	reporter agenttrace.Reporter
	scorer   scoring.Scorer
	prices   *cost.Table
	attrs    *spanattrs.Registry
	genai    *metrics.GenAI

	mu     sync.RWMutex
	active bool
	trace  *agenttrace.Trace

	// Interception state, guarded by regMu.
	regMu       sync.Mutex
	caps        map[string]Capability
	capOrder    []string
	enabled     map[string]bool
	enableAll   bool
	live        bool
	installed   map[string][]Patch
	installErrs map[string]error
}

// New creates a tracer. Without options it uses DefaultConfig, the built-in
// cost table and a reporter that logs a summary of each trace.
func New(ctx context.Context, opts ...Option) (*Tracer, error) {
	t := &Tracer{
		cfg:         DefaultConfig(),
		caps:        make(map[string]Capability),
		enabled:     make(map[string]bool),
		installed:   make(map[string][]Patch),
		installErrs: make(map[string]error),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if t.project == nil {
		t.project = &agenttrace.ProjectInfo{
			ProjectName: t.cfg.ProjectName,
			DatasetName: t.cfg.DatasetName,
			TracerType:  t.cfg.TracerType,
		}
	}
	if t.prices == nil {
		t.prices = cost.LoadFile(ctx, t.cfg.CostTablePath)
	}
	if t.attrs == nil {
		t.attrs = spanattrs.NewRegistry()
	}
	if t.reporter == nil {
		t.reporter = agenttrace.NewDefaultReporter(ctx)
		if t.cfg.ReportURL != "" {
			r, err := report.NewHTTP(t.cfg.ReportURL, report.WithRetry(t.cfg.Retry))
			if err != nil {
				return nil, fmt.Errorf("creating trace reporter: %w", err)
			}
			t.reporter = agenttrace.Multi(t.reporter, r)
		}
	}

	project := *t.project
	t.genai = metrics.NewGenAI("chainguard.dev/spantree")
	t.genai.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return project.EnrichAttributes(base)
	})
	return t, nil
}

// Config returns the tracer's configuration.
func (t *Tracer) Config() Config {
	return t.cfg
}

// Span returns the pending attributes for the next call named name. They
// are consumed by that call and then reset; writes through a handle fetched
// before then are dropped, so fetch a new one for each call.
func (t *Tracer) Span(name string) *spanattrs.Attributes {
	return t.attrs.Span(name)
}

// Start opens a new trace and, when llm instrumentation is on, installs the
// capabilities chosen with Enable, or every registered capability if none
// were chosen. Capabilities registered later are installed as they arrive.
func (t *Tracer) Start(ctx context.Context) (*agenttrace.Trace, error) {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	trace := agenttrace.NewTrace(ctx, *t.project)
	t.trace = trace
	t.active = true
	t.mu.Unlock()

	if t.cfg.InstrumentLLM {
		t.resume(ctx)
	}

	clog.FromContext(ctx).With("trace_id", trace.ID).
		With("project", trace.Project.ProjectName).
		Info("Tracing started")
	return trace, nil
}

// Stop restores every intercepted entry point, completes the trace and hands
// it to the reporter. Delivery errors are logged; the trace is returned
// either way.
func (t *Tracer) Stop(ctx context.Context) (*agenttrace.Trace, error) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return nil, ErrNotStarted
	}
	trace := t.trace
	t.active = false
	t.mu.Unlock()

	t.DisableAll(ctx)
	trace.Complete(ctx)

	if err := t.reporter.Report(ctx, trace); err != nil {
		clog.FromContext(ctx).With("trace_id", trace.ID).
			Warn("Failed to report trace", "error", err)
	}
	return trace, nil
}

// Trace returns the open trace, or nil.
func (t *Tracer) Trace() *agenttrace.Trace {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.active {
		return nil
	}
	return t.trace
}

// traceFor returns the open trace when components of type typ are being
// recorded, or nil.
func (t *Tracer) traceFor(typ agenttrace.ComponentType) *agenttrace.Trace {
	if t == nil {
		return nil
	}
	switch typ {
	case agenttrace.TypeLLM:
		if !t.cfg.InstrumentLLM {
			return nil
		}
	case agenttrace.TypeTool:
		if !t.cfg.InstrumentTools {
			return nil
		}
	case agenttrace.TypeAgent:
		if !t.cfg.InstrumentAgents {
			return nil
		}
	}
	return t.Trace()
}
