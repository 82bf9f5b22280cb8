/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"context"

	"chainguard.dev/spantree/agents/cost"
	"chainguard.dev/spantree/agents/extract"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/vertex"
)

// NewClaude creates a judge scorer backed by the Anthropic Messages API.
// prices may be nil, in which case judge calls are recorded at zero cost.
func NewClaude(client anthropic.Client, model string, prices *cost.Table) Scorer {
	var x extract.Anthropic
	return &judge{
		provider: "anthropic",
		model:    model,
		prices:   prices,
		complete: func(ctx context.Context, model, system, prompt string) (*completion, error) {
			params := anthropic.MessageNewParams{
				Model:       anthropic.Model(model),
				MaxTokens:   2048,
				Temperature: anthropic.Float(0.1),
				System:      []anthropic.TextBlockParam{{Text: system}},
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
				},
			}
			msg, err := client.Messages.New(ctx, params)
			if err != nil {
				return nil, err
			}
			return &completion{
				Text:  x.Output(msg),
				Model: x.ModelName(params, msg),
				Usage: x.TokenUsage(msg),
			}, nil
		},
	}
}

// NewVertexClaude creates a Claude judge scorer authenticated against
// Vertex AI.
func NewVertexClaude(ctx context.Context, projectID, region, model string, prices *cost.Table) Scorer {
	client := anthropic.NewClient(
		vertex.WithGoogleAuth(ctx, region, projectID),
	)
	return NewClaude(client, model, prices)
}
