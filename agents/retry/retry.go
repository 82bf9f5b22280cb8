/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry retries calls to remote collaborators, such as scoring and
// reporting services, with exponential backoff. It is never used around
// traced calls themselves.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config configures retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts. 0 means do not retry.
	MaxRetries int `env:"MAX_RETRIES,default=3"`
	// BaseBackoff is the initial backoff duration.
	BaseBackoff time.Duration `env:"BASE_BACKOFF,default=500ms"`
	// MaxBackoff caps the backoff, including any server-requested delay.
	MaxBackoff time.Duration `env:"MAX_BACKOFF,default=30s"`
	// MaxJitter is the maximum random jitter added to backoff.
	MaxJitter time.Duration `env:"MAX_JITTER,default=250ms"`
}

// Validate checks that the retry configuration has valid values.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// Default returns the configuration used for remote collaborators.
func Default() Config {
	return Config{
		MaxRetries:  3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}
}

// StatusError is a non-2xx response from a remote collaborator.
type StatusError struct {
	Code int
	Body string
	// RetryAfter is the delay the server asked for, if any.
	RetryAfter time.Duration
}

// NewStatusError builds a StatusError from resp and its already-read body.
func NewStatusError(resp *http.Response, body []byte) *StatusError {
	err := &StatusError{Code: resp.StatusCode, Body: string(body)}
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, perr := strconv.Atoi(s); perr == nil && secs > 0 {
			err.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return err
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status code.
func (e *StatusError) StatusCode() int { return e.Code }

// IsRetryableStatus reports whether err is a rate limit or server error.
func IsRetryableStatus(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
}

// Do executes fn with exponential backoff. It only retries errors that
// isRetryable accepts, and honors a StatusError's RetryAfter up to MaxBackoff.
func Do[T any](ctx context.Context, cfg Config, operation string, isRetryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}

		if !isRetryable(lastErr) {
			return result, lastErr
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		wait := backoff(cfg, attempt, lastErr)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", wait).
			With("error", lastErr.Error()).
			Warn("Remote call failed, retrying")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
	}

	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, lastErr)
}

// backoff is BaseBackoff * 2^attempt plus jitter, raised to any server
// requested delay and capped at MaxBackoff.
func backoff(cfg Config, attempt int, err error) time.Duration {
	wait := cfg.BaseBackoff << attempt
	if cfg.MaxJitter > 0 {
		if n, rerr := rand.Int(rand.Reader, big.NewInt(int64(cfg.MaxJitter))); rerr == nil {
			wait += time.Duration(n.Int64())
		}
	}
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > wait {
		wait = se.RetryAfter
	}
	return min(wait, cfg.MaxBackoff)
}
