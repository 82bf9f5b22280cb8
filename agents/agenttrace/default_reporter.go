/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// NewDefaultReporter creates a new default reporter that logs to clog
func NewDefaultReporter(ctx context.Context) Reporter {
	logger := clog.FromContext(ctx)

	callback := func(trace *Trace) {
		totals := trace.Totals()
		logger.With(
			"trace_id", trace.ID,
			"project", trace.Project.ProjectName,
			"duration_ms", trace.Duration().Milliseconds(),
			"components", totals.Components,
			"total_tokens", totals.Tokens.TotalTokens,
			"total_cost", totals.Cost.TotalCost,
		).Info("Trace completed", "trace", trace.String())
	}

	return ByCode(callback)
}
