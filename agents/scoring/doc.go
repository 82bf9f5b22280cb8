/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package scoring computes requested metrics for finished components.

A Scorer receives the trace id, metric name, model and provider to score
with, and the prompt, context, response and expected response of the call.
Implementations include LLM-as-judge scorers backed by Claude and Gemini and
an HTTP client for a remote scoring service. A Router dispatches requests to
scorers by provider name.

Evaluate scores a batch concurrently. A failing metric is logged and dropped
and never affects the component it belongs to:

	router := scoring.NewRouter()
	router.Register("anthropic", scoring.NewClaude(client, "claude-haiku-4-5", prices))

	for _, s := range scoring.Evaluate(ctx, router, requests) {
		metric := s.Metric(trace.ClaimMetricName(s.Request.MetricName))
		// ...
	}
*/
package scoring
