/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ProjectInfo identifies where a trace is reported and how it is grouped.
type ProjectInfo struct {
	ProjectName string         `json:"project_name"`
	DatasetName string         `json:"dataset_name,omitempty"`
	TracerType  string         `json:"tracer_type,omitempty"`                   // e.g. "agentic", "llamaindex"
	Metadata    map[string]any `json:"metadata,omitempty"`                      // free-form, trace only
	Pipeline    map[string]any `json:"pipeline,omitempty" jsonschema:"nullable"` // description of the traced pipeline
}

// EnrichAttributes adds project attributes to the provided base attributes.
// Only bounded labels are added: metadata and pipeline stay on the trace.
func (p ProjectInfo) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+3)
	copy(attrs, baseAttrs)

	if p.ProjectName != "" {
		attrs = append(attrs, attribute.String("project", p.ProjectName))
	}
	if p.DatasetName != "" {
		attrs = append(attrs, attribute.String("dataset", p.DatasetName))
	}
	if p.TracerType != "" {
		attrs = append(attrs, attribute.String("tracer_type", p.TracerType))
	}
	return attrs
}

// contextKey is used for storing project info in context.Context
type contextKey string

const projectKey contextKey = "project_info"

// WithProject adds project info to the Go context
func WithProject(ctx context.Context, p ProjectInfo) context.Context {
	return context.WithValue(ctx, projectKey, p)
}

// ProjectFromContext retrieves project info from the Go context
func ProjectFromContext(ctx context.Context) ProjectInfo {
	p, _ := projectFromContext(ctx)
	return p
}

func projectFromContext(ctx context.Context) (ProjectInfo, bool) {
	if val := ctx.Value(projectKey); val != nil {
		if p, ok := val.(ProjectInfo); ok {
			return p, true
		}
	}
	return ProjectInfo{}, false
}
