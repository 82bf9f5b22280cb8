/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func randomString() string {
	return fmt.Sprintf("test-%d", rand.Int63())
}

func TestNewTraceUsesContextProject(t *testing.T) {
	ctx := context.Background()

	fallback := ProjectInfo{ProjectName: randomString()}
	if got := NewTrace(ctx, fallback).Project; got.ProjectName != fallback.ProjectName {
		t.Errorf("project without context: got = %q, wanted = %q", got.ProjectName, fallback.ProjectName)
	}

	want := ProjectInfo{ProjectName: randomString(), DatasetName: randomString()}
	ctx = WithProject(ctx, want)
	trace := NewTrace(ctx, fallback)
	if diff := cmp.Diff(want, trace.Project); diff != "" {
		t.Errorf("project from context (-want +got):\n%s", diff)
	}
	if trace.ID == "" {
		t.Error("trace id: got = empty, wanted = non-empty")
	}
}

func TestClaimMetricName(t *testing.T) {
	trace := NewTrace(context.Background(), ProjectInfo{})

	got := []string{
		trace.ClaimMetricName("accuracy"),
		trace.ClaimMetricName("accuracy"),
		trace.ClaimMetricName("relevance"),
		trace.ClaimMetricName("accuracy"),
		trace.ClaimMetricName("accuracy_1"),
	}
	want := []string{"accuracy", "accuracy_1", "relevance", "accuracy_2", "accuracy_1_1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("claimed names (-want +got):\n%s", diff)
	}

	// Dedup state does not leak across traces.
	if got := NewTrace(context.Background(), ProjectInfo{}).ClaimMetricName("accuracy"); got != "accuracy" {
		t.Errorf("fresh trace claim: got = %q, wanted = %q", got, "accuracy")
	}
}

func TestAddUsageConcurrent(t *testing.T) {
	trace := NewTrace(context.Background(), ProjectInfo{})

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			trace.AddUsage(TokenUsage{PromptTokens: 2, CompletionTokens: 1, TotalTokens: 3},
				Cost{InputCost: 0.5, OutputCost: 0.25, TotalCost: 0.75})
		})
	}
	wg.Wait()

	want := Totals{
		Tokens: TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
		Cost:   Cost{InputCost: 25, OutputCost: 12.5, TotalCost: 37.5},
	}
	if diff := cmp.Diff(want, trace.Totals()); diff != "" {
		t.Errorf("totals (-want +got):\n%s", diff)
	}
}

func TestWalkAndFind(t *testing.T) {
	trace := NewTrace(context.Background(), ProjectInfo{})
	tool := &Component{ID: "t", Name: "T", Type: TypeTool}
	llm := &Component{ID: "l", Name: "L", Type: TypeLLM}
	agent := &Component{ID: "a", Name: "A", Type: TypeAgent, Children: []*Component{tool, llm}}
	other := &Component{ID: "o", Name: "O", Type: TypeTool}
	trace.AddComponent(agent)
	trace.AddComponent(other)

	var visited []string
	trace.Walk(func(c *Component, depth int) bool {
		visited = append(visited, fmt.Sprintf("%s@%d", c.Name, depth))
		return true
	})
	if diff := cmp.Diff([]string{"A@0", "T@1", "L@1", "O@0"}, visited); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}

	if got := trace.Find("l"); got != llm {
		t.Errorf("find nested: got = %v, wanted = %v", got, llm)
	}
	if got := trace.Find("missing"); got != nil {
		t.Errorf("find missing: got = %v, wanted = nil", got)
	}
}

func TestCompleteOnce(t *testing.T) {
	ctx := context.Background()
	trace := NewTrace(ctx, ProjectInfo{})

	if !trace.Complete(ctx) {
		t.Error("first complete: got = false, wanted = true")
	}
	end := trace.EndTime
	if trace.Complete(ctx) {
		t.Error("second complete: got = true, wanted = false")
	}
	if trace.EndTime != end {
		t.Errorf("end time moved: got = %v, wanted = %v", trace.EndTime.Time(), end.Time())
	}
	if trace.EndTime.Time().Before(trace.StartTime.Time()) {
		t.Errorf("end time %v before start time %v", trace.EndTime.Time(), trace.StartTime.Time())
	}
}

func TestTraceString(t *testing.T) {
	trace := NewTrace(context.Background(), ProjectInfo{ProjectName: "demo"})
	trace.AddComponent(&Component{
		ID:      "a",
		Name:    "outer",
		Type:    TypeAgent,
		Metrics: []Metric{{Name: "accuracy", Score: 0.5}},
		Children: []*Component{{
			ID:    "b",
			Name:  "inner",
			Type:  TypeLLM,
			Info:  Info{Model: "gpt-4o"},
			Error: &ErrorInfo{Code: 500, Message: "boom"},
		}},
	})

	s := trace.String()
	for _, want := range []string{"Project: demo", "[agent] outer", "    [llm] inner", "Model: gpt-4o", "Error: 500 boom", "Metric accuracy: 0.500"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestPayloadSnapshot(t *testing.T) {
	trace := NewTrace(context.Background(), ProjectInfo{ProjectName: randomString()})
	trace.Metadata["run"] = 1
	trace.AddComponent(&Component{ID: "a"})
	trace.AddUsage(TokenUsage{TotalTokens: 7}, Cost{})

	p := trace.Payload()
	trace.AddComponent(&Component{ID: "b"})
	trace.Metadata["run"] = 2

	if len(p.Components) != 1 {
		t.Errorf("payload components: got = %d, wanted = 1", len(p.Components))
	}
	if p.Metadata["run"] != 1 {
		t.Errorf("payload metadata: got = %v, wanted = 1", p.Metadata["run"])
	}
	if p.Totals.Tokens.TotalTokens != 7 {
		t.Errorf("payload tokens: got = %d, wanted = 7", p.Totals.Tokens.TotalTokens)
	}
}

func TestAddComponentAfterComplete(t *testing.T) {
	ctx := context.Background()
	trace := NewTrace(ctx, ProjectInfo{ProjectName: randomString()})
	if !trace.AddComponent(&Component{ID: "a"}) {
		t.Error("AddComponent() on an open trace: got = false, wanted = true")
	}
	trace.Complete(ctx)

	if trace.AddComponent(&Component{ID: "late"}) {
		t.Error("AddComponent() on a complete trace: got = true, wanted = false")
	}
	if got := len(trace.Payload().Components); got != 1 {
		t.Errorf("components: got = %d, wanted = 1", got)
	}
}
