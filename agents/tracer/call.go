/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"os"
	"sync"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/tracectx"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func otelTracer() oteltrace.Tracer {
	return otel.Tracer("chainguard.dev/spantree/agents/tracer",
		oteltrace.WithInstrumentationVersion("1.0.0"))
}

// outcome is how a traced call ended. Exactly one of output and err is
// meaningful.
type outcome struct {
	output any
	err    error
}

// call is the in-flight state of one traced call, from begin to finish.
type call struct {
	t     *Tracer
	trace *agenttrace.Trace
	spec  Spec

	id       string
	hash     string
	parentID *string
	parent   *tracectx.Frame
	frame    *tracectx.Frame
	active   *tracectx.Active
	callName *tracectx.CallName

	start time.Time
	rss   int64
	ctx   context.Context
	span  oteltrace.Span

	once sync.Once
}

// begin registers a new component under the current agent and returns the
// context the call runs in. It returns nil when the call is not traced.
func (t *Tracer) begin(ctx context.Context, spec Spec) (*call, context.Context) {
	trace := t.traceFor(spec.Type)
	if trace == nil {
		return nil, ctx
	}

	c := &call{
		t:        t,
		trace:    trace,
		spec:     spec,
		id:       uuid.NewString(),
		hash:     hashID(spec),
		parentID: tracectx.ParentID(ctx),
		parent:   tracectx.CurrentAgent(ctx),
		rss:      residentMemory(ctx),
		start:    time.Now(),
	}

	if !oteltrace.SpanContextFromContext(ctx).IsValid() {
		ctx = oteltrace.ContextWithSpan(ctx, oteltrace.SpanFromContext(trace.Context()))
	}
	ctx, c.span = otelTracer().Start(ctx, string(spec.Type)+"."+spec.Name,
		oteltrace.WithAttributes(
			attribute.String("component.id", c.id),
			attribute.String("component.type", string(spec.Type)),
			attribute.String("component.name", spec.Name),
			attribute.String("trace.id", trace.ID),
		))

	if spec.Type == agenttrace.TypeAgent {
		ctx, c.frame = tracectx.WithAgent(ctx, c.id)
	}
	if spec.Type == agenttrace.TypeLLM && spec.llm == nil {
		ctx, c.callName = tracectx.WithCallName(ctx, spec.Name)
	}
	c.active = tracectx.NewActive(c.id)
	ctx = tracectx.WithComponent(ctx, c.active)
	c.ctx = ctx
	return c, ctx
}

// finish builds the component for out and hands it to the enclosing agent,
// or to the trace root when there is none. Only the first call has effect.
func (c *call) finish(out outcome) {
	c.once.Do(func() {
		c.complete(out)
	})
}

func (c *call) complete(out outcome) {
	end := time.Now()
	mem := max(residentMemory(c.ctx)-c.rss, 0)
	defer c.span.End()

	if out.err != nil {
		c.span.RecordError(out.err)
		c.span.SetStatus(codes.Error, out.err.Error())
	} else {
		c.span.SetStatus(codes.Ok, "")
	}

	// Intercepted calls inside a named llm span record themselves under
	// its name.
	if c.callName != nil && c.callName.Observed() > 0 {
		return
	}

	var children []*agenttrace.Component
	if c.frame != nil {
		children = c.frame.Close()
	}
	comp := c.build(out, end, mem, children)

	// A child that outlives its agent is kept at the root with its
	// parent id intact.
	if c.parent == nil || !c.parent.Adopt(comp) {
		if !c.trace.AddComponent(comp) {
			clog.FromContext(c.ctx).With("trace_id", c.trace.ID).
				With("component", comp.Name).
				Warn("Call finished after the trace was stopped, dropping it")
			return
		}
	}
	c.trace.Count(comp)
}

var (
	procOnce sync.Once
	proc     *process.Process
)

// residentMemory returns the resident set size of this process, or 0 when
// it cannot be read.
func residentMemory(ctx context.Context) int64 {
	procOnce.Do(func() {
		if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
			proc = p
		}
	})
	if proc == nil {
		return 0
	}
	mi, err := proc.MemoryInfoWithContext(context.WithoutCancel(ctx))
	if err != nil || mi == nil {
		return 0
	}
	return int64(mi.RSS)
}
