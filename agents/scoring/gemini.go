/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"context"
	"fmt"

	"chainguard.dev/spantree/agents/cost"
	"chainguard.dev/spantree/agents/extract"
	"google.golang.org/genai"
)

// judgementSchema constrains Gemini to the Judgement shape.
var judgementSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"mode": {
			Type:        "string",
			Description: "The judgment mode: golden or standalone",
		},
		"score": {
			Type:        "number",
			Description: "The evaluation score from 0.0 to 1.0",
		},
		"reasoning": {
			Type:        "string",
			Description: "Explanation of the score",
		},
		"suggestions": {
			Type: "array",
			Items: &genai.Schema{
				Type:        "string",
				Description: "Improvement suggestions",
			},
		},
	},
	Required: []string{"mode", "score", "reasoning", "suggestions"},
}

// NewGemini creates a judge scorer backed by the GenAI GenerateContent API.
func NewGemini(client *genai.Client, model string, prices *cost.Table) Scorer {
	var x extract.Gemini
	return &judge{
		provider: "google",
		model:    model,
		prices:   prices,
		complete: func(ctx context.Context, model, system, prompt string) (*completion, error) {
			temperature := float32(0.1)
			req := extract.GeminiRequest{
				Model:    model,
				Contents: genai.Text(prompt),
				Config: &genai.GenerateContentConfig{
					Temperature:      &temperature,
					ResponseMIMEType: "application/json",
					ResponseSchema:   judgementSchema,
					SystemInstruction: &genai.Content{
						Parts: []*genai.Part{{Text: system}},
					},
				},
			}
			resp, err := client.Models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
			if err != nil {
				return nil, err
			}
			return &completion{
				Text:  x.Output(resp),
				Model: x.ModelName(req, resp),
				Usage: x.TokenUsage(resp),
			}, nil
		},
	}
}

// NewVertexGemini creates a Gemini judge scorer using Vertex AI.
func NewVertexGemini(ctx context.Context, projectID, region, model string, prices *cost.Table) (Scorer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google AI client: %w", err)
	}
	return NewGemini(client, model, prices), nil
}
