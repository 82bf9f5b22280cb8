/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusError struct{ code int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

func TestNewErrorInfo(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantType string
	}{{
		name:     "plain error",
		err:      errors.New("boom"),
		wantCode: 500,
		wantType: "*errors.errorString",
	}, {
		name:     "canceled",
		err:      fmt.Errorf("calling model: %w", context.Canceled),
		wantCode: 499,
		wantType: "*fmt.wrapError",
	}, {
		name:     "deadline",
		err:      context.DeadlineExceeded,
		wantCode: 504,
		wantType: "context.deadlineExceededError",
	}, {
		name:     "status code",
		err:      fmt.Errorf("wrapped: %w", &statusError{code: 429}),
		wantCode: 429,
		wantType: "*fmt.wrapError",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewErrorInfo(tt.err)
			if info.Code != tt.wantCode {
				t.Errorf("code: got = %d, wanted = %d", info.Code, tt.wantCode)
			}
			if info.Type != tt.wantType {
				t.Errorf("type: got = %q, wanted = %q", info.Type, tt.wantType)
			}
			if info.Message != tt.err.Error() {
				t.Errorf("message: got = %q, wanted = %q", info.Message, tt.err.Error())
			}
			if info.Details == nil {
				t.Error("details: got = nil, wanted = non-nil map")
			}
		})
	}

	if NewErrorInfo(nil) != nil {
		t.Error("NewErrorInfo(nil): got = non-nil, wanted = nil")
	}
}

func TestComponentJSON(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &Component{
		ID:        "id",
		HashID:    "hash",
		Type:      TypeLLM,
		Name:      "call",
		StartTime: Timestamp(start),
		EndTime:   Timestamp(start.Add(time.Second)),
	}

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	for _, key := range []string{"id", "hash_id", "type", "name", "start_time", "end_time", "parent_id", "info", "data", "metrics", "network_calls", "interactions", "error"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if raw["parent_id"] != nil {
		t.Errorf("parent_id: got = %v, wanted = nil", raw["parent_id"])
	}

	var back Component
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if !back.StartTime.Time().Equal(start) {
		t.Errorf("start time: got = %v, wanted = %v", back.StartTime.Time(), start)
	}
	if got := back.Duration(); got != time.Second {
		t.Errorf("duration: got = %v, wanted = %v", got, time.Second)
	}
}

func TestTokenUsageNormalize(t *testing.T) {
	got := TokenUsage{PromptTokens: 3, CompletionTokens: 4}.Normalize()
	if got.TotalTokens != 7 {
		t.Errorf("total: got = %d, wanted = 7", got.TotalTokens)
	}
	got = TokenUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 10}.Normalize()
	if got.TotalTokens != 10 {
		t.Errorf("provider total: got = %d, wanted = 10", got.TotalTokens)
	}
}
