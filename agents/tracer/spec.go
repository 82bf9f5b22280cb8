/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"chainguard.dev/spantree/agents/agenttrace"
)

// Spec describes one traced call.
type Spec struct {
	Type      agenttrace.ComponentType
	Name      string
	Version   string
	ToolType  string
	AgentType string
	// Model is the model an llm span calls. Intercepted calls read it from
	// the provider response instead.
	Model string
	// Input is recorded as the component's input payload.
	Input any

	// site identifies the wrapped callable for the hash id.
	site string
	llm  *llmCall
}

// llmCall is what an intercepted provider call knows about itself.
type llmCall struct {
	provider string
	params   map[string]any
	messages []agenttrace.Message
	// describe reads the successful response.
	describe func(out any) llmResult
}

type llmResult struct {
	model  string
	usage  agenttrace.TokenUsage
	output string
}

// SpecOption customizes a Spec.
type SpecOption func(*Spec)

// WithVersion records the version of the traced agent or tool.
func WithVersion(v string) SpecOption {
	return func(s *Spec) { s.Version = v }
}

// WithToolType records the kind of tool, e.g. "search".
func WithToolType(typ string) SpecOption {
	return func(s *Spec) { s.ToolType = typ }
}

// WithAgentType records the kind of agent, e.g. "planner".
func WithAgentType(typ string) SpecOption {
	return func(s *Spec) { s.AgentType = typ }
}

// WithModel records the model an llm span calls.
func WithModel(model string) SpecOption {
	return func(s *Spec) { s.Model = model }
}

// WithInput records the call's input payload.
func WithInput(v any) SpecOption {
	return func(s *Spec) { s.Input = v }
}

func newSpec(typ agenttrace.ComponentType, name string, opts []SpecOption) Spec {
	s := Spec{Type: typ, Name: name}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Agent describes an agent call. Components created while it runs become
// its children.
func Agent(name string, opts ...SpecOption) Spec {
	return newSpec(agenttrace.TypeAgent, name, opts)
}

// Tool describes a tool call.
func Tool(name string, opts ...SpecOption) Spec {
	return newSpec(agenttrace.TypeTool, name, opts)
}

// LLM describes a named llm call. Intercepted provider calls made while it
// runs are recorded under its name; if there are none, the span records
// its own llm component.
func LLM(name string, opts ...SpecOption) Spec {
	return newSpec(agenttrace.TypeLLM, name, opts)
}

// funcSite names the function behind fn.
func funcSite(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// hashID derives a stable id from the call site and the shape of the input:
// two calls share it when they go through the same function with the same
// argument structure.
func hashID(spec Spec) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", spec.Type, spec.Name, spec.site, shape(spec.Input))
	return hex.EncodeToString(h.Sum(nil))
}

// shape describes the structure of v without its values.
func shape(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case map[string]any:
		keys := slices.Sorted(maps.Keys(v))
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+":"+shape(v[k]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, shape(e))
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%T", v)
	}
}
