/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/extract"
	"chainguard.dev/spantree/agents/scoring"
	"chainguard.dev/spantree/agents/spanattrs"
	"github.com/chainguard-dev/clog"
)

// build assembles the component record for a finished call.
func (c *call) build(out outcome, end time.Time, mem int64, children []*agenttrace.Component) *agenttrace.Component {
	// Scoring and metrics still run when the traced call was cancelled.
	ctx := context.WithoutCancel(c.ctx)
	spec := c.spec

	comp := &agenttrace.Component{
		ID:        c.id,
		HashID:    c.hash,
		Type:      spec.Type,
		Name:      spec.Name,
		StartTime: agenttrace.Timestamp(c.start),
		EndTime:   agenttrace.Timestamp(end),
		ParentID:  c.parentID,
		Info: agenttrace.Info{
			Version:    spec.Version,
			ToolType:   spec.ToolType,
			AgentType:  spec.AgentType,
			MemoryUsed: mem,
			Tags:       []string{},
		},
		Data: agenttrace.Data{
			Input:      sanitize(spec.Input),
			MemoryUsed: mem,
		},
		Metrics:      []agenttrace.Metric{},
		NetworkCalls: []agenttrace.NetworkCall{},
		Interactions: []agenttrace.Interaction{},
		Children:     children,
	}
	if out.err != nil {
		comp.Error = agenttrace.NewErrorInfo(out.err)
	} else {
		comp.Data.Output = sanitize(out.output)
	}

	var prompt, response string
	if spec.Type == agenttrace.TypeLLM {
		prompt, response = c.recordLLM(ctx, comp, out)
	} else {
		prompt = agenttrace.ConversationText(spec.Input)
		if out.err == nil {
			response = agenttrace.ConversationText(out.output)
		}
	}

	c.applyAttributes(ctx, comp, c.t.attrs.Consume(spec.Name), prompt, response)
	c.attachObservations(comp)

	c.t.genai.RecordComponent(ctx, string(spec.Type), comp.Failed(), comp.Duration().Seconds())
	if spec.Type == agenttrace.TypeTool {
		c.t.genai.RecordToolCall(ctx, spec.Name)
	}
	return comp
}

// recordLLM fills the model, usage and cost of an llm component, adds them
// to the trace totals and returns the prompt and response text.
func (c *call) recordLLM(ctx context.Context, comp *agenttrace.Component, out outcome) (prompt, response string) {
	spec := c.spec
	model := spec.Model
	var usage agenttrace.TokenUsage

	if llm := spec.llm; llm != nil {
		comp.Data.Input = llm.messages
		comp.Info.Parameters = filterParameters(llm.params, c.t.cfg.MaxParameters)
		comp.ExtraInfo = map[string]any{"provider": llm.provider}
		prompt = agenttrace.ConversationText(llm.messages)
		if out.err == nil {
			r := llm.describe(out.output)
			if r.model != "" {
				model = r.model
			}
			usage = r.usage
			response = r.output
			comp.Data.Output = r.output
		}
	} else {
		prompt = agenttrace.ConversationText(spec.Input)
		if out.err == nil {
			response = agenttrace.ConversationText(out.output)
			usage = extract.EstimateUsage(model, prompt, response)
		}
	}

	usage = usage.Normalize()
	price := c.t.prices.Calculate(usage, model)
	comp.Info.Model = model
	comp.Info.Tokens = &usage
	comp.Info.Cost = &price

	c.trace.AddUsage(usage, price)
	c.t.genai.RecordTokens(ctx, model, usage.PromptTokens, usage.CompletionTokens)
	c.t.genai.RecordCost(ctx, model, price.TotalCost)
	return prompt, response
}

// applyAttributes attaches the span attributes consumed for this call.
func (c *call) applyAttributes(ctx context.Context, comp *agenttrace.Component, snap spanattrs.Snapshot, prompt, response string) {
	if !snap.HasAttributes {
		return
	}

	comp.Info.Tags = append(comp.Info.Tags, snap.Tags...)
	if len(snap.Metadata) > 0 || len(snap.Feedback) > 0 {
		if comp.ExtraInfo == nil {
			comp.ExtraInfo = make(map[string]any, len(snap.Metadata)+1)
		}
		maps.Copy(comp.ExtraInfo, snap.Metadata)
		if len(snap.Feedback) > 0 {
			comp.ExtraInfo["feedback"] = snap.Feedback
		}
	}
	if snap.GroundTruth != nil {
		comp.Data.GroundTruth = sanitize(snap.GroundTruth)
	}
	comp.Data.Context = snap.Context

	for _, m := range snap.Metrics {
		m.Name = c.trace.ClaimMetricName(m.Name)
		if m.Mappings == nil {
			m.Mappings = []any{}
		}
		comp.Metrics = append(comp.Metrics, m)
	}

	if len(snap.LocalMetrics) == 0 {
		return
	}
	if c.t.scorer == nil {
		clog.FromContext(ctx).With("component", comp.Name).
			With("metrics", len(snap.LocalMetrics)).
			Warn("No scorer configured, skipping requested metrics")
		return
	}

	expected := agenttrace.ConversationText(snap.GroundTruth)
	reqs := make([]*scoring.Request, 0, len(snap.LocalMetrics))
	for _, lm := range snap.LocalMetrics {
		var threshold *agenttrace.Threshold
		if lm.LTE != nil || lm.GTE != nil {
			threshold = &agenttrace.Threshold{LTE: lm.LTE, GTE: lm.GTE}
		}
		reqs = append(reqs, &scoring.Request{
			TraceID:          c.trace.ID,
			MetricName:       lm.Name,
			Model:            lm.Model,
			Provider:         lm.Provider,
			Prompt:           prompt,
			Context:          snap.Context,
			Response:         response,
			ExpectedResponse: expected,
			Threshold:        threshold,
		})
	}
	for _, s := range scoring.Evaluate(ctx, c.t.scorer, reqs) {
		comp.Metrics = append(comp.Metrics, s.Metric(c.trace.ClaimMetricName(s.Request.MetricName)))
	}
}

// attachObservations copies the network calls and interactions recorded
// while the call ran, each gated by its own toggle.
func (c *call) attachObservations(comp *agenttrace.Component) {
	cfg := c.t.cfg
	if cfg.InstrumentNetwork {
		if calls := c.active.NetworkCalls(); len(calls) > 0 {
			comp.NetworkCalls = calls
		}
	}
	for _, i := range c.active.Interactions() {
		if (i.Type.IsFileIO() && cfg.InstrumentFileIO) || (!i.Type.IsFileIO() && cfg.InstrumentUserInteraction) {
			comp.Interactions = append(comp.Interactions, i)
		}
	}
}

// filterParameters keeps at most limit scalar parameters, choosing keys in
// sorted order.
func filterParameters(params map[string]any, limit int) map[string]any {
	if len(params) == 0 || limit <= 0 {
		return nil
	}
	out := make(map[string]any, min(len(params), limit))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		if !isScalar(params[k]) {
			continue
		}
		out[k] = params[k]
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}

// sanitize keeps payloads that encode as JSON and replaces the rest with
// their printed form.
func sanitize(v any) any {
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}
