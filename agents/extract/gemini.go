/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package extract

import (
	"strings"

	"chainguard.dev/spantree/agents/agenttrace"
	"google.golang.org/genai"
)

// GeminiRequest is the argument list of Models.GenerateContent.
type GeminiRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Gemini extracts from the GenAI GenerateContent API.
type Gemini struct{}

var _ Extractor[GeminiRequest, *genai.GenerateContentResponse] = Gemini{}

func (Gemini) Provider() string { return "google" }

func (Gemini) ModelName(req GeminiRequest, resp *genai.GenerateContentResponse) string {
	if resp != nil && resp.ModelVersion != "" {
		return resp.ModelVersion
	}
	return req.Model
}

func (Gemini) Parameters(req GeminiRequest) map[string]any {
	if req.Config == nil {
		return nil
	}
	return jsonFields(req.Config, "systemInstruction", "tools", "toolConfig", "responseSchema", "safetySettings", "labels")
}

func (Gemini) TokenUsage(resp *genai.GenerateContentResponse) agenttrace.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return agenttrace.TokenUsage{}
	}
	return agenttrace.TokenUsage{
		PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
	}.Normalize()
}

func (Gemini) Output(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	return resp.Text()
}

func (Gemini) Input(req GeminiRequest) []agenttrace.Message {
	var out []agenttrace.Message
	if req.Config != nil && req.Config.SystemInstruction != nil {
		out = append(out, geminiMessage("system", req.Config.SystemInstruction))
	}
	for _, c := range req.Contents {
		if c != nil {
			out = append(out, geminiMessage(c.Role, c))
		}
	}
	return out
}

func geminiMessage(role string, c *genai.Content) agenttrace.Message {
	var parts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return agenttrace.Message{Role: role, Content: strings.Join(parts, "\n")}
}
