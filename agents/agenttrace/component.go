/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ComponentType identifies the kind of work a component records.
type ComponentType string

const (
	// TypeLLM is a language model invocation.
	TypeLLM ComponentType = "llm"
	// TypeTool is a tool invocation.
	TypeTool ComponentType = "tool"
	// TypeAgent is an agent invocation that may enclose other components.
	TypeAgent ComponentType = "agent"
)

// Timestamp is a time that encodes as ISO 8601 with the local zone offset.
type Timestamp time.Time

// Time returns the underlying time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).Local().Format(time.RFC3339Nano)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}

// TokenUsage is the token accounting for a single llm call or a whole trace.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Add returns the element-wise sum of u and o.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Normalize fills TotalTokens from its parts when a provider omitted it.
func (u TokenUsage) Normalize() TokenUsage {
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

// Cost is the monetary cost of a call in USD.
type Cost struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// Info is the capability-specific summary of a component.
type Info struct {
	Model      string         `json:"model,omitempty"`
	Version    string         `json:"version,omitempty"`
	ToolType   string         `json:"tool_type,omitempty"`
	AgentType  string         `json:"agent_type,omitempty"`
	MemoryUsed int64          `json:"memory_used"`
	Cost       *Cost          `json:"cost,omitempty"`
	Tokens     *TokenUsage    `json:"tokens,omitempty"`
	Tags       []string       `json:"tags"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Data holds the payloads of a component.
type Data struct {
	Input       any    `json:"input"`
	Output      any    `json:"output"`
	MemoryUsed  int64  `json:"memory_used"`
	GroundTruth any    `json:"gt"`
	Context     string `json:"context,omitempty"`
}

// Threshold is the pass/fail bound attached to a scored metric.
type Threshold struct {
	IsEditable bool     `json:"is_editable"`
	LTE        *float64 `json:"lte,omitempty"`
	GTE        *float64 `json:"gte,omitempty"`
}

// MetricConfig describes how a metric was computed.
type MetricConfig struct {
	JobID      string     `json:"job_id,omitempty"`
	MetricName string     `json:"metric_name,omitempty"`
	Model      string     `json:"model,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	Threshold  *Threshold `json:"threshold,omitempty"`
}

// Metric is one evaluation score attached to a component.
type Metric struct {
	Name      string         `json:"name"`
	Score     float64        `json:"score"`
	Reasoning string         `json:"reason"`
	Source    string         `json:"source"`
	Cost      *float64       `json:"cost,omitempty"`
	Latency   *float64       `json:"latency,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Config    MetricConfig   `json:"config"`
	Mappings  []any          `json:"mappings"`
}

// NetworkCall is an outbound HTTP request observed while a component ran.
type NetworkCall struct {
	Method        string    `json:"method"`
	URL           string    `json:"url"`
	StatusCode    int       `json:"status_code,omitempty"`
	StartTime     Timestamp `json:"start_time"`
	EndTime       Timestamp `json:"end_time"`
	RequestBytes  int64     `json:"request_bytes"`
	ResponseBytes int64     `json:"response_bytes"`
	Error         string    `json:"error,omitempty"`
}

// InteractionType classifies an Interaction.
type InteractionType string

const (
	InteractionInput     InteractionType = "input"
	InteractionOutput    InteractionType = "output"
	InteractionFileRead  InteractionType = "file_read"
	InteractionFileWrite InteractionType = "file_write"
)

// IsFileIO reports whether the interaction touched the filesystem.
func (t InteractionType) IsFileIO() bool {
	return t == InteractionFileRead || t == InteractionFileWrite
}

// Interaction is a user or file I/O exchange observed while a component ran.
type Interaction struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"interaction_type"`
	Content   string          `json:"content"`
	Timestamp Timestamp       `json:"timestamp"`
}

// ErrorInfo describes why a traced call failed.
type ErrorInfo struct {
	Code    int            `json:"code"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// NewErrorInfo summarizes err for a component.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	code := 500
	var coded interface{ StatusCode() int }
	switch {
	case errors.Is(err, context.Canceled):
		code = 499
	case errors.Is(err, context.DeadlineExceeded):
		code = 504
	case errors.As(err, &coded):
		code = coded.StatusCode()
	}

	details := map[string]any{}
	if inner := errors.Unwrap(err); inner != nil {
		details["cause"] = inner.Error()
	}
	return &ErrorInfo{
		Code:    code,
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: details,
	}
}

// Component is one recorded unit of traced work.
type Component struct {
	ID           string         `json:"id"`
	HashID       string         `json:"hash_id"`
	SourceHashID *string        `json:"source_hash_id"`
	Type         ComponentType  `json:"type"`
	Name         string         `json:"name"`
	StartTime    Timestamp      `json:"start_time"`
	EndTime      Timestamp      `json:"end_time"`
	ParentID     *string        `json:"parent_id"`
	Info         Info           `json:"info"`
	ExtraInfo    map[string]any `json:"extra_info,omitempty"`
	Data         Data           `json:"data"`
	Metrics      []Metric       `json:"metrics"`
	NetworkCalls []NetworkCall  `json:"network_calls"`
	Interactions []Interaction  `json:"interactions"`
	Error        *ErrorInfo     `json:"error"`
	Children     []*Component   `json:"children,omitempty"`
}

// Duration is the wall time of the component.
func (c *Component) Duration() time.Duration {
	return c.EndTime.Time().Sub(c.StartTime.Time())
}

// Failed reports whether the component recorded an error.
func (c *Component) Failed() bool {
	return c.Error != nil
}
