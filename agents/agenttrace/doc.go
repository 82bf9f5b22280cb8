/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace provides the data model and root collector for traces of
nested agent workflows.

# Overview

  - Component: one recorded unit of work (an llm, tool or agent call)
  - Trace: the root of a component tree plus running token and cost totals
  - ProjectInfo: project and dataset metadata used to group traces
  - Reporter: receives finished traces for logging or delivery

Components are built by the tracer package; agenttrace only stores them and
answers questions about the assembled tree.

# Usage

	ctx = agenttrace.WithProject(ctx, agenttrace.ProjectInfo{
		ProjectName: "recommendations",
		DatasetName: "nightly",
	})

	trace := agenttrace.NewTrace(ctx, agenttrace.ProjectInfo{})
	trace.AddComponent(component)
	trace.AddUsage(agenttrace.TokenUsage{PromptTokens: 100, CompletionTokens: 50}, cost)
	trace.Complete(ctx)

	reporter := agenttrace.ByCode(func(trace *agenttrace.Trace) {
		log.Printf("Trace completed: %s", trace.ID)
	})
	_ = reporter.Report(ctx, trace)

# Metric names

Metric names are unique per trace. ClaimMetricName returns the base name on
first use and base_1, base_2, ... afterwards.
*/
package agenttrace
