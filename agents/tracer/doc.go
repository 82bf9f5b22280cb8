/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package tracer records nested agent, tool and llm calls as a tree of
// components.
//
// # Lifecycle
//
// A Tracer is inert until Start opens a trace. Stop restores every
// intercepted entry point, completes the trace and hands it to the
// configured agenttrace.Reporter:
//
//	cfg, err := tracer.LoadConfig(ctx)
//	if err != nil {
//		return err
//	}
//	t, err := tracer.New(ctx, tracer.WithConfig(cfg))
//	if err != nil {
//		return err
//	}
//	if _, err := t.Start(ctx); err != nil {
//		return err
//	}
//	defer t.Stop(ctx)
//
// # Traced calls
//
// Run and Go trace one call synchronously or on a new goroutine. WrapAgent,
// WrapTool and WrapLLM return traced versions of a function with the same
// signature:
//
//	research := tracer.WrapAgent(t, "research", func(ctx context.Context, q string) (string, error) {
//		docs, err := search(ctx, q) // a WrapTool function
//		if err != nil {
//			return "", err
//		}
//		return summarize(ctx, docs) // a WrapLLM function
//	})
//
// Parents travel in the context: a call's parent is the nearest agent
// enclosing the context it was given. Outside Start and Stop, or with the
// toggle for a call's type off, the wrapped function is called directly.
//
// # Capabilities
//
// Provider SDKs are intercepted through Capability values registered with
// Register. Enable chooses which capabilities are wrapped, including ones
// registered later, and DisableAll puts the originals back. See the
// capability package for the Anthropic, Gemini and OpenAI adapters.
//
// # Span attributes
//
// Span(name) declares tags, metadata, metrics, ground truth and context for
// the next call named name. They are consumed by that call only.
package tracer
