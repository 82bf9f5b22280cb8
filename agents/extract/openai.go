/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package extract

import (
	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/openai/openai-go"
)

// OpenAI extracts from the Chat Completions API.
type OpenAI struct{}

var _ Extractor[openai.ChatCompletionNewParams, *openai.ChatCompletion] = OpenAI{}

func (OpenAI) Provider() string { return "openai" }

func (OpenAI) ModelName(req openai.ChatCompletionNewParams, resp *openai.ChatCompletion) string {
	if resp != nil && resp.Model != "" {
		return resp.Model
	}
	return string(req.Model)
}

func (OpenAI) Parameters(req openai.ChatCompletionNewParams) map[string]any {
	return jsonFields(req, "model", "messages", "tools", "tool_choice", "functions", "metadata", "response_format")
}

func (OpenAI) TokenUsage(resp *openai.ChatCompletion) agenttrace.TokenUsage {
	if resp == nil {
		return agenttrace.TokenUsage{}
	}
	return agenttrace.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}.Normalize()
}

func (OpenAI) Output(resp *openai.ChatCompletion) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func (OpenAI) Input(req openai.ChatCompletionNewParams) []agenttrace.Message {
	return jsonMessages(req.Messages)
}
