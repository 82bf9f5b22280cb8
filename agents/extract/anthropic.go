/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package extract

import (
	"strings"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/anthropics/anthropic-sdk-go"
)

// Anthropic extracts from the Messages API.
type Anthropic struct{}

var _ Extractor[anthropic.MessageNewParams, *anthropic.Message] = Anthropic{}

func (Anthropic) Provider() string { return "anthropic" }

func (Anthropic) ModelName(req anthropic.MessageNewParams, resp *anthropic.Message) string {
	if resp != nil && resp.Model != "" {
		return string(resp.Model)
	}
	return string(req.Model)
}

func (Anthropic) Parameters(req anthropic.MessageNewParams) map[string]any {
	return jsonFields(req, "model", "messages", "system", "tools", "tool_choice", "metadata")
}

func (Anthropic) TokenUsage(resp *anthropic.Message) agenttrace.TokenUsage {
	if resp == nil {
		return agenttrace.TokenUsage{}
	}
	return agenttrace.TokenUsage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}.Normalize()
}

func (Anthropic) Output(resp *anthropic.Message) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (Anthropic) Input(req anthropic.MessageNewParams) []agenttrace.Message {
	var out []agenttrace.Message
	for _, s := range req.System {
		out = append(out, agenttrace.Message{Role: "system", Content: s.Text})
	}
	return append(out, jsonMessages(req.Messages)...)
}
