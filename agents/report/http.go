/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Option configures the HTTP reporter.
type Option func(*httpReporter) error

// WithHTTPClient sets the client used to deliver payloads.
func WithHTTPClient(c *http.Client) Option {
	return func(r *httpReporter) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		r.client = c
		return nil
	}
}

// WithRetry sets the retry behavior for rate limits and server errors.
func WithRetry(cfg retry.Config) Option {
	return func(r *httpReporter) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		r.retry = cfg
		return nil
	}
}

// WithToken authenticates deliveries with a bearer token.
func WithToken(token string) Option {
	return func(r *httpReporter) error {
		if token == "" {
			return errors.New("token cannot be empty")
		}
		r.token = token
		return nil
	}
}

type httpReporter struct {
	endpoint string
	client   *http.Client
	retry    retry.Config
	token    string
}

// NewHTTP creates a Reporter that posts each trace's payload as JSON to
// endpoint. Any non-2xx response is a rejection.
func NewHTTP(endpoint string, opts ...Option) (agenttrace.Reporter, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid report url %q", endpoint)
	}
	r := &httpReporter{
		endpoint: endpoint,
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		retry:    retry.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *httpReporter) Report(ctx context.Context, trace *agenttrace.Trace) error {
	body, err := json.Marshal(trace.Payload())
	if err != nil {
		return fmt.Errorf("marshaling trace %s: %w", trace.ID, err)
	}

	_, err = retry.Do(ctx, r.retry, "report_trace", retry.IsRetryableStatus, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("posting trace: %w", err)
		}
		defer resp.Body.Close()

		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return struct{}{}, retry.NewStatusError(resp, payload)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("trace %s rejected: %w", trace.ID, err)
	}

	clog.FromContext(ctx).With("trace_id", trace.ID).
		With("endpoint", r.endpoint).
		With("bytes", len(body)).
		Info("Trace delivered")
	return nil
}
