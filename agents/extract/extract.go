/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package extract pulls model names, parameters, token usage and text out of
// provider request and response types. Extractors are pure: they hold no
// state and never call the provider.
package extract

import (
	"encoding/json"

	"chainguard.dev/spantree/agents/agenttrace"
)

// Extractor reads one provider's request and response shapes.
type Extractor[Req, Resp any] interface {
	// Provider names the model provider, e.g. "anthropic".
	Provider() string
	// ModelName prefers the model reported in resp over the one requested.
	ModelName(req Req, resp Resp) string
	Parameters(req Req) map[string]any
	TokenUsage(resp Resp) agenttrace.TokenUsage
	Output(resp Resp) string
	Input(req Req) []agenttrace.Message
}

// Funcs builds an Extractor from plain functions. Nil functions yield zero
// values.
type Funcs[Req, Resp any] struct {
	ProviderName string
	Model        func(Req, Resp) string
	Params       func(Req) map[string]any
	Usage        func(Resp) agenttrace.TokenUsage
	Text         func(Resp) string
	Messages     func(Req) []agenttrace.Message
}

var _ Extractor[string, string] = Funcs[string, string]{}

func (f Funcs[Req, Resp]) Provider() string { return f.ProviderName }

func (f Funcs[Req, Resp]) ModelName(req Req, resp Resp) string {
	if f.Model == nil {
		return ""
	}
	return f.Model(req, resp)
}

func (f Funcs[Req, Resp]) Parameters(req Req) map[string]any {
	if f.Params == nil {
		return nil
	}
	return f.Params(req)
}

func (f Funcs[Req, Resp]) TokenUsage(resp Resp) agenttrace.TokenUsage {
	if f.Usage == nil {
		return agenttrace.TokenUsage{}
	}
	return f.Usage(resp).Normalize()
}

func (f Funcs[Req, Resp]) Output(resp Resp) string {
	if f.Text == nil {
		return ""
	}
	return f.Text(resp)
}

func (f Funcs[Req, Resp]) Input(req Req) []agenttrace.Message {
	if f.Messages == nil {
		return nil
	}
	return f.Messages(req)
}

// jsonFields round-trips v through its JSON encoding and drops the named
// top-level keys. SDK parameter types carry optional fields that only their
// encoders know how to read.
func jsonFields(v any, drop ...string) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	for _, k := range drop {
		delete(out, k)
	}
	return out
}

// jsonMessages converts SDK message params into role and text pairs.
func jsonMessages[M any](msgs []M) []agenttrace.Message {
	out := make([]agenttrace.Message, 0, len(msgs))
	for _, m := range msgs {
		fields := jsonFields(m)
		if fields == nil {
			continue
		}
		role, _ := fields["role"].(string)
		out = append(out, agenttrace.Message{
			Role:    role,
			Content: agenttrace.ConversationText(fields["content"]),
		})
	}
	return out
}
