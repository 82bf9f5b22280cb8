/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/cost"
)

// JudgmentMode specifies the type of judgment to perform.
type JudgmentMode string

const (
	// GoldenMode evaluates a response against an expected response.
	GoldenMode JudgmentMode = "golden"
	// StandaloneMode evaluates a response against the metric alone.
	StandaloneMode JudgmentMode = "standalone"
)

// ModeFor returns GoldenMode when req carries an expected response.
func ModeFor(req *Request) JudgmentMode {
	if strings.TrimSpace(req.ExpectedResponse) != "" {
		return GoldenMode
	}
	return StandaloneMode
}

// Judgement is the structured verdict a judge model returns.
type Judgement struct {
	Mode        JudgmentMode `json:"mode"`
	Score       float64      `json:"score"`
	Reasoning   string       `json:"reasoning"`
	Suggestions []string     `json:"suggestions"`
}

// ErrMalformedJudgement is returned when a judge's reply cannot be parsed.
var ErrMalformedJudgement = errors.New("malformed judgement")

// ParseJudgement extracts the JSON judgement from a model reply, tolerating
// surrounding prose and code fences.
func ParseJudgement(text string) (*Judgement, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedJudgement)
	}
	var j Judgement
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJudgement, err)
	}
	if j.Score < 0 || j.Score > 1 {
		return nil, fmt.Errorf("%w: score %v outside [0, 1]", ErrMalformedJudgement, j.Score)
	}
	return &j, nil
}

const systemPrompt = `You are an impartial evaluator of AI system outputs.
You score a single metric at a time and always answer with a JSON object.`

const goldenInstructions = `<instructions>
1. Compare the actual response to the expected response
2. Evaluate specifically for the named metric, using the context when present
3. Score from 0.0 (fails the metric entirely) to 1.0 (equivalent to or better than the expected response)
4. Minor wording or stylistic differences that do not change meaning must not lower the score
</instructions>`

const standaloneInstructions = `<instructions>
1. Evaluate the actual response for the named metric, given the prompt and context
2. Score from 0.0 (fails the metric entirely) to 1.0 (fully satisfies the metric)
3. Judge only the named metric, not overall quality
</instructions>`

const outputFormat = `<output_format>
Return your judgment as a JSON object with this structure:
{
  "mode": "%s",
  "score": 0.0-1.0,
  "reasoning": "explanation of the score for this metric",
  "suggestions": ["improvement1", ...]
}
</output_format>`

// BuildPrompt renders the judge prompt for req.
func BuildPrompt(req *Request) string {
	mode := ModeFor(req)

	var sb strings.Builder
	sb.WriteString("<task>\nYou are scoring the metric below for one AI response.\n</task>\n\n")
	writeTag(&sb, "metric", req.MetricName)
	writeTag(&sb, "prompt", req.Prompt)
	if req.Context != "" {
		writeTag(&sb, "context", req.Context)
	}
	if mode == GoldenMode {
		writeTag(&sb, "expected_response", req.ExpectedResponse)
	}
	writeTag(&sb, "actual_response", req.Response)

	if mode == GoldenMode {
		sb.WriteString(goldenInstructions)
	} else {
		sb.WriteString(standaloneInstructions)
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf(outputFormat, mode))
	return sb.String()
}

func writeTag(sb *strings.Builder, name, value string) {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = xml.EscapeText(&buf, []byte(value))
	sb.WriteString(fmt.Sprintf("<%s>\n%s\n</%s>\n\n", name, buf.String(), name))
}

// completion is one judge model reply.
type completion struct {
	Text  string
	Model string
	Usage agenttrace.TokenUsage
}

// judge scores requests by asking a model for a Judgement.
type judge struct {
	provider string
	model    string
	prices   *cost.Table
	complete func(ctx context.Context, model, system, prompt string) (*completion, error)
}

func (j *judge) Score(ctx context.Context, req *Request) (*Result, error) {
	model := j.model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	reply, err := j.complete(ctx, model, systemPrompt, BuildPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("%s judge: %w", j.provider, err)
	}
	latency := time.Since(start).Seconds()

	verdict, err := ParseJudgement(reply.Text)
	if err != nil {
		return nil, fmt.Errorf("%s judge: %w", j.provider, err)
	}

	if reply.Model != "" {
		model = reply.Model
	}
	usd := j.prices.Calculate(reply.Usage, model).TotalCost
	return &Result{
		Score:     verdict.Score,
		Reasoning: verdict.Reasoning,
		Cost:      &usd,
		Latency:   &latency,
		Config: agenttrace.MetricConfig{
			MetricName: req.MetricName,
			Model:      model,
			Provider:   j.provider,
			Reason:     string(verdict.Mode),
			Threshold:  req.Threshold,
		},
	}, nil
}
