/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"chainguard.dev/spantree/agents/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPOption configures the remote scoring client.
type HTTPOption func(*httpScorer) error

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *httpScorer) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		s.client = c
		return nil
	}
}

// WithRetry sets the retry behavior for rate limits and server errors.
func WithRetry(cfg retry.Config) HTTPOption {
	return func(s *httpScorer) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		s.retry = cfg
		return nil
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) HTTPOption {
	return func(s *httpScorer) error {
		if token == "" {
			return errors.New("token cannot be empty")
		}
		s.token = token
		return nil
	}
}

type httpScorer struct {
	endpoint string
	client   *http.Client
	retry    retry.Config
	token    string
}

// NewHTTP creates a scorer that delegates to a remote scoring service at
// baseURL. Requests are posted as JSON to {baseURL}/v1/metrics/score.
func NewHTTP(baseURL string, opts ...HTTPOption) (Scorer, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid scoring service url %q", baseURL)
	}
	s := &httpScorer{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/v1/metrics/score",
		client:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		retry:    retry.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *httpScorer) Score(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling score request: %w", err)
	}

	return retry.Do(ctx, s.retry, "score_metric", retry.IsRetryableStatus, func(ctx context.Context) (*Result, error) {
		hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		hreq.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			hreq.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.Do(hreq)
		if err != nil {
			return nil, fmt.Errorf("posting score request: %w", err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("reading score response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, retry.NewStatusError(resp, payload)
		}

		var res Result
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, fmt.Errorf("decoding score response: %w", err)
		}
		return &res, nil
	})
}
