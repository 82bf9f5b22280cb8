/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package capability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/extract"
	"chainguard.dev/spantree/agents/tracer"
	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTracer(t *testing.T) *tracer.Tracer {
	t.Helper()
	tr, err := tracer.New(context.Background(), tracer.WithReporter(agenttrace.ByCode()))
	require.NoError(t, err)
	return tr
}

func jsonServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestAnthropicInterception(t *testing.T) {
	ctx := context.Background()
	srv, hits := jsonServer(t, `{
		"id": "msg_1", "type": "message", "role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": "Hello from Claude"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 100, "output_tokens": 50}
	}`)

	claude := Anthropic(anthropic.NewClient(
		anthropicoption.WithBaseURL(srv.URL),
		anthropicoption.WithAPIKey("test"),
		anthropicoption.WithMaxRetries(0),
	))
	tr := newTracer(t)
	tr.Register(ctx, claude)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model("claude-sonnet-4-5"),
		MaxTokens: 256,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("Hi"))},
	}

	_, err := tr.Start(ctx)
	require.NoError(t, err)
	msg, err := claude.Messages.Call(ctx, params)
	require.NoError(t, err)
	trace, err := tr.Stop(ctx)
	require.NoError(t, err)

	if got := (extract.Anthropic{}).Output(msg); got != "Hello from Claude" {
		t.Errorf("output: got = %q, wanted = %q", got, "Hello from Claude")
	}
	require.Len(t, trace.Components, 1)
	c := trace.Components[0]
	if c.Name != "Messages.New" || c.Type != agenttrace.TypeLLM {
		t.Errorf("component: got = %s %s, wanted llm Messages.New", c.Type, c.Name)
	}
	if c.Info.Model != "claude-sonnet-4-5" {
		t.Errorf("model: got = %q", c.Info.Model)
	}
	if c.Info.Tokens == nil || c.Info.Tokens.TotalTokens != 150 {
		t.Errorf("tokens: got = %+v, wanted 150 total", c.Info.Tokens)
	}
	if c.ExtraInfo["provider"] != "anthropic" {
		t.Errorf("provider: got = %v", c.ExtraInfo["provider"])
	}
	if c.Info.Parameters["max_tokens"] != float64(256) {
		t.Errorf("parameters: got = %v", c.Info.Parameters)
	}

	// Restored: calls still reach the client but are no longer recorded.
	if tr.Installed("anthropic") {
		t.Error("Installed(anthropic) after Stop: got = true, wanted = false")
	}
	_, err = claude.Messages.Call(ctx, params)
	require.NoError(t, err)
	if got := hits.Load(); got != 2 {
		t.Errorf("requests: got = %d, wanted = 2", got)
	}
	if got := trace.Totals().Components; got != 1 {
		t.Errorf("components after stop: got = %d, wanted = 1", got)
	}
}

func TestOpenAIInterception(t *testing.T) {
	ctx := context.Background()
	srv, _ := jsonServer(t, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello from GPT"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`)

	chat := OpenAI(openai.NewClient(
		openaioption.WithBaseURL(srv.URL),
		openaioption.WithAPIKey("test"),
		openaioption.WithMaxRetries(0),
	))
	tr := newTracer(t)
	tr.Register(ctx, chat)

	_, err := tr.Start(ctx)
	require.NoError(t, err)
	resp, err := tracer.Run(ctx, tr, tracer.LLM("greet"), func(ctx context.Context) (*openai.ChatCompletion, error) {
		return chat.Completions.Call(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel("gpt-4o-mini"),
			Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("Hi")},
		})
	})
	require.NoError(t, err)
	trace, err := tr.Stop(ctx)
	require.NoError(t, err)

	if resp.Choices[0].Message.Content != "Hello from GPT" {
		t.Errorf("content: got = %q", resp.Choices[0].Message.Content)
	}
	require.Len(t, trace.Components, 1)
	c := trace.Components[0]
	if c.Name != "greet" || c.Info.Model != "gpt-4o-mini" || c.Data.Output != "Hello from GPT" {
		t.Errorf("component: got = %s model %s output %v", c.Name, c.Info.Model, c.Data.Output)
	}
	if c.Info.Tokens == nil || c.Info.Tokens.TotalTokens != 15 {
		t.Errorf("tokens: got = %+v, wanted 15 total", c.Info.Tokens)
	}
}

func TestGeminiInterception(t *testing.T) {
	ctx := context.Background()
	srv, _ := jsonServer(t, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "Hello from Gemini"}]}}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3, "totalTokenCount": 10},
		"modelVersion": "gemini-2.5-flash"
	}`)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      "test",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)
	gemini := Gemini(client)
	tr := newTracer(t)

	_, err = tr.Start(ctx)
	require.NoError(t, err)
	tr.Register(ctx, gemini)
	_, err = tracer.Run(ctx, tr, tracer.Agent("writer"), func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return gemini.GenerateContent.Go(ctx, extract.GeminiRequest{
			Model:    "gemini-2.5-flash",
			Contents: genai.Text("Hi"),
		}).Await(ctx)
	})
	require.NoError(t, err)
	trace, err := tr.Stop(ctx)
	require.NoError(t, err)

	require.Len(t, trace.Components, 1)
	agent := trace.Components[0]
	require.Len(t, agent.Children, 1)
	c := agent.Children[0]
	if c.Name != "Models.GenerateContent" || c.ParentID == nil || *c.ParentID != agent.ID {
		t.Errorf("component: got = %s parent %v, wanted Models.GenerateContent under %s", c.Name, c.ParentID, agent.ID)
	}
	if c.Info.Tokens == nil || c.Info.Tokens.TotalTokens != 10 {
		t.Errorf("tokens: got = %+v, wanted 10 total", c.Info.Tokens)
	}
}

func TestSlotRestore(t *testing.T) {
	ctx := context.Background()
	s := NewSlot(func(_ context.Context, n int) (int, error) { return n, nil })

	double := func(next func(context.Context, int) (int, error)) func(context.Context, int) (int, error) {
		return func(ctx context.Context, n int) (int, error) {
			v, err := next(ctx, n)
			return v * 2, err
		}
	}

	restoreFirst := s.swap(double)
	restoreSecond := s.swap(double)
	if got, _ := s.Call(ctx, 3); got != 12 {
		t.Errorf("Call(3) twice wrapped: got = %d, wanted = 12", got)
	}

	if err := restoreFirst(); !errors.Is(err, tracer.ErrEntryPointReplaced) {
		t.Errorf("out of order restore = %v, wanted %v", err, tracer.ErrEntryPointReplaced)
	}
	require.NoError(t, restoreSecond())
	if got, _ := s.Call(ctx, 3); got != 6 {
		t.Errorf("Call(3) after restoring the outer wrapper: got = %d, wanted = 6", got)
	}

	// Unwound in order, the inner wrapper can now come off too.
	require.NoError(t, restoreFirst())
	if got, _ := s.Call(ctx, 3); got != 3 {
		t.Errorf("Call(3) after restoring both: got = %d, wanted = 3", got)
	}
}

func TestInstallWithoutEntryPoints(t *testing.T) {
	ctx := context.Background()
	tr := newTracer(t)
	empty := NewLLM[string, string]("empty", extract.Funcs[string, string]{ProviderName: "none"})

	tr.Register(ctx, empty)
	tr.Enable(ctx, "empty")
	if tr.Installed("empty") {
		t.Error("Installed(empty): got = true, wanted = false")
	}
	if tr.InstallError("empty") == nil {
		t.Error("InstallError(empty): got = nil, wanted an error")
	}
}
