/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/extract"
	"chainguard.dev/spantree/agents/tracectx"
	"github.com/chainguard-dev/clog"
)

// InterceptLLM wraps a provider entry point so that each call through it
// records an llm component. The component is named after the enclosing
// LLM span when there is one, and after member otherwise. x reads the
// model, parameters, usage and text from the request and response.
func InterceptLLM[Req, Resp any](t *Tracer, member string, x extract.Extractor[Req, Resp], next func(context.Context, Req) (Resp, error)) func(context.Context, Req) (Resp, error) {
	site := funcSite(next)
	return func(ctx context.Context, req Req) (Resp, error) {
		if t.traceFor(agenttrace.TypeLLM) == nil {
			return next(ctx, req)
		}

		name := member
		if cn := tracectx.CallNameFrom(ctx); cn != nil {
			name = cn.Observe()
		}

		var zero Resp
		provider := extractField(ctx, member, "provider", x.Provider)
		spec := LLM(name, WithModel(extractField(ctx, member, "model", func() string { return x.ModelName(req, zero) })))
		spec.site = site
		spec.llm = &llmCall{
			provider: provider,
			params:   extractField(ctx, member, "parameters", func() map[string]any { return x.Parameters(req) }),
			messages: extractField(ctx, member, "input", func() []agenttrace.Message { return x.Input(req) }),
			describe: func(out any) llmResult {
				resp, _ := out.(Resp)
				return llmResult{
					model:  extractField(ctx, member, "model", func() string { return x.ModelName(req, resp) }),
					usage:  extractField(ctx, member, "usage", func() agenttrace.TokenUsage { return x.TokenUsage(resp) }),
					output: extractField(ctx, member, "output", func() string { return x.Output(resp) }),
				}
			},
		}
		return Run(ctx, t, spec, func(ctx context.Context) (Resp, error) {
			return next(ctx, req)
		})
	}
}

// extractField calls fn and returns its result, or the zero value when the
// extractor panics. The panic is logged and never reaches the traced caller.
func extractField[T any](ctx context.Context, member, field string, fn func() T) (v T) {
	defer func() {
		if r := recover(); r != nil {
			clog.FromContext(ctx).With("entry_point", member).
				With("field", field).
				Warn("Extractor panicked, recording the field as empty", "panic", r)
			var zero T
			v = zero
		}
	}()
	return fn()
}

// WrapAgent returns fn traced as an agent named name. Calls fn makes with
// the context it is given become children of the agent.
func WrapAgent[In, Out any](t *Tracer, name string, fn func(context.Context, In) (Out, error), opts ...SpecOption) func(context.Context, In) (Out, error) {
	return wrap(t, agenttrace.TypeAgent, name, fn, opts)
}

// WrapTool returns fn traced as a tool named name.
func WrapTool[In, Out any](t *Tracer, name string, fn func(context.Context, In) (Out, error), opts ...SpecOption) func(context.Context, In) (Out, error) {
	return wrap(t, agenttrace.TypeTool, name, fn, opts)
}

// WrapLLM returns fn traced as an llm call named name. Intercepted provider
// calls fn makes are recorded under name; when fn makes none, the span
// records its own component with estimated token usage.
func WrapLLM[In, Out any](t *Tracer, name string, fn func(context.Context, In) (Out, error), opts ...SpecOption) func(context.Context, In) (Out, error) {
	return wrap(t, agenttrace.TypeLLM, name, fn, opts)
}

func wrap[In, Out any](t *Tracer, typ agenttrace.ComponentType, name string, fn func(context.Context, In) (Out, error), opts []SpecOption) func(context.Context, In) (Out, error) {
	site := funcSite(fn)
	return func(ctx context.Context, in In) (Out, error) {
		spec := newSpec(typ, name, opts)
		if spec.Input == nil {
			spec.Input = in
		}
		spec.site = site
		return Run(ctx, t, spec, func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		})
	}
}
