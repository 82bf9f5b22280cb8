/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package capability

import (
	"context"

	"chainguard.dev/spantree/agents/extract"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// AnthropicMessages is the Anthropic Messages API as a capability.
type AnthropicMessages struct {
	*LLM[anthropic.MessageNewParams, *anthropic.Message]
	// Messages is client.Messages.New.
	Messages *Slot[anthropic.MessageNewParams, *anthropic.Message]
}

// Anthropic binds the Messages API of client.
func Anthropic(client anthropic.Client) *AnthropicMessages {
	l := NewLLM[anthropic.MessageNewParams, *anthropic.Message]("anthropic", extract.Anthropic{})
	return &AnthropicMessages{
		LLM: l,
		Messages: l.Bind("Messages.New", func(ctx context.Context, p anthropic.MessageNewParams) (*anthropic.Message, error) {
			return client.Messages.New(ctx, p)
		}),
	}
}

// GeminiModels is the GenAI GenerateContent API as a capability.
type GeminiModels struct {
	*LLM[extract.GeminiRequest, *genai.GenerateContentResponse]
	// GenerateContent is client.Models.GenerateContent.
	GenerateContent *Slot[extract.GeminiRequest, *genai.GenerateContentResponse]
}

// Gemini binds the GenerateContent API of client.
func Gemini(client *genai.Client) *GeminiModels {
	l := NewLLM[extract.GeminiRequest, *genai.GenerateContentResponse]("gemini", extract.Gemini{})
	return &GeminiModels{
		LLM: l,
		GenerateContent: l.Bind("Models.GenerateContent", func(ctx context.Context, r extract.GeminiRequest) (*genai.GenerateContentResponse, error) {
			return client.Models.GenerateContent(ctx, r.Model, r.Contents, r.Config)
		}),
	}
}

// OpenAIChat is the OpenAI Chat Completions API as a capability.
type OpenAIChat struct {
	*LLM[openai.ChatCompletionNewParams, *openai.ChatCompletion]
	// Completions is client.Chat.Completions.New.
	Completions *Slot[openai.ChatCompletionNewParams, *openai.ChatCompletion]
}

// OpenAI binds the Chat Completions API of client.
func OpenAI(client openai.Client) *OpenAIChat {
	l := NewLLM[openai.ChatCompletionNewParams, *openai.ChatCompletion]("openai", extract.OpenAI{})
	return &OpenAIChat{
		LLM: l,
		Completions: l.Bind("Chat.Completions.New", func(ctx context.Context, p openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return client.Chat.Completions.New(ctx, p)
		}),
	}
}
