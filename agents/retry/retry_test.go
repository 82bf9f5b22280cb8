/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chainguard.dev/spantree/agents/retry"
)

func testConfig() retry.Config {
	return retry.Config{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

// alwaysRetryable is a test helper that considers all errors retryable.
func alwaysRetryable(err error) bool {
	return err != nil
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	retryableErr := &retry.StatusError{Code: http.StatusTooManyRequests}

	result, err := retry.Do(context.Background(), testConfig(), "test_op", retry.IsRetryableStatus, func(context.Context) (string, error) {
		if attempts.Add(1) < 3 {
			return "", retryableErr
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Fatalf("expected result %q, got %q", "recovered", result)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDo_ExhaustedRetries(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	retryableErr := &retry.StatusError{Code: http.StatusBadGateway}

	var attempts atomic.Int32
	_, err := retry.Do(context.Background(), cfg, "test_op", alwaysRetryable, func(context.Context) (string, error) {
		attempts.Add(1)
		return "", retryableErr
	})
	if !errors.Is(err, retryableErr) {
		t.Fatalf("expected wrapped error to contain original, got: %v", err)
	}
	if got := attempts.Load(); got != 4 {
		t.Fatalf("expected 4 attempts (1 initial + 3 retries), got %d", got)
	}
	expected := fmt.Sprintf("test_op failed after %d retries", cfg.MaxRetries)
	if !strings.HasPrefix(err.Error(), expected) {
		t.Fatalf("expected error to start with %q, got %q", expected, err.Error())
	}
}

func TestDo_NonRetryableError(t *testing.T) {
	t.Parallel()
	permErr := &retry.StatusError{Code: http.StatusForbidden}

	var attempts atomic.Int32
	_, err := retry.Do(context.Background(), testConfig(), "test_op", retry.IsRetryableStatus, func(context.Context) (string, error) {
		attempts.Add(1)
		return "", permErr
	})
	if !errors.Is(err, permErr) {
		t.Fatalf("expected original error, got: %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	_, err := retry.Do(ctx, testConfig(), "test_op", alwaysRetryable, func(context.Context) (string, error) {
		cancel()
		return "", errors.New("503")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want bool
	}{
		{err: &retry.StatusError{Code: 429}, want: true},
		{err: &retry.StatusError{Code: 500}, want: true},
		{err: fmt.Errorf("wrapped: %w", &retry.StatusError{Code: 503}), want: true},
		{err: &retry.StatusError{Code: 400}, want: false},
		{err: errors.New("plain"), want: false},
	}
	for _, tt := range tests {
		if got := retry.IsRetryableStatus(tt.err); got != tt.want {
			t.Errorf("IsRetryableStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewStatusError(t *testing.T) {
	t.Parallel()
	resp := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"2"}}}
	err := retry.NewStatusError(resp, []byte("slow down"))
	if err.RetryAfter != 2*time.Second {
		t.Errorf("RetryAfter = %v, want 2s", err.RetryAfter)
	}
	if err.StatusCode() != 429 {
		t.Errorf("StatusCode() = %d, want 429", err.StatusCode())
	}
	if got, want := err.Error(), "unexpected status 429: slow down"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	if err := retry.Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	bad := retry.Default()
	bad.MaxRetries = -1
	if err := bad.Validate(); err == nil {
		t.Error("Validate() with negative retries = nil, want error")
	}
}
