/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Request is one metric to score.
type Request struct {
	TraceID          string                `json:"trace_id"`
	MetricName       string                `json:"metric_name"`
	Model            string                `json:"model,omitempty"`
	Provider         string                `json:"provider,omitempty"`
	Prompt           string                `json:"prompt"`
	Context          string                `json:"context,omitempty"`
	Response         string                `json:"response"`
	ExpectedResponse string                `json:"expected_response,omitempty"`
	Threshold        *agenttrace.Threshold `json:"threshold,omitempty"`
}

// Result is a scored metric.
type Result struct {
	// Score ranges from 0.0 to 1.0.
	Score     float64                 `json:"score"`
	Reasoning string                  `json:"reasoning"`
	Cost      *float64                `json:"cost,omitempty"`
	Latency   *float64                `json:"latency,omitempty"`
	Config    agenttrace.MetricConfig `json:"config"`
}

// Scorer computes a metric.
type Scorer interface {
	Score(ctx context.Context, req *Request) (*Result, error)
}

// ScorerFunc adapts a function to a Scorer.
type ScorerFunc func(ctx context.Context, req *Request) (*Result, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// Scored pairs a request with its successful result.
type Scored struct {
	Request *Request
	Result  *Result
}

// Metric normalizes the score into a component metric stored under name.
func (s Scored) Metric(name string) agenttrace.Metric {
	cfg := s.Result.Config
	if cfg.MetricName == "" {
		cfg.MetricName = s.Request.MetricName
	}
	if cfg.Model == "" {
		cfg.Model = s.Request.Model
	}
	if cfg.Provider == "" {
		cfg.Provider = s.Request.Provider
	}
	if cfg.Threshold == nil {
		cfg.Threshold = s.Request.Threshold
	}
	return agenttrace.Metric{
		Name:      name,
		Score:     s.Result.Score,
		Reasoning: s.Result.Reasoning,
		Source:    "local_metric",
		Cost:      s.Result.Cost,
		Latency:   s.Result.Latency,
		Config:    cfg,
		Mappings:  []any{},
	}
}

// Evaluate scores reqs concurrently and returns the successes in request
// order. Failures are logged and dropped.
func Evaluate(ctx context.Context, scorer Scorer, reqs []*Request) []Scored {
	results := make([]*Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := score(gctx, scorer, req)
			if err != nil {
				clog.FromContext(ctx).With("metric", req.MetricName).
					With("provider", req.Provider).
					With("trace_id", req.TraceID).
					Warn("Scoring metric failed", "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Scoring errors are contained above.
	_ = g.Wait()

	out := make([]Scored, 0, len(reqs))
	for i, res := range results {
		if res != nil {
			out = append(out, Scored{Request: reqs[i], Result: res})
		}
	}
	return out
}

func score(ctx context.Context, scorer Scorer, req *Request) (res *Result, err error) {
	m := metricsFor(req)
	m.requests.Inc()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panicked: %v", r)
		}
		if err != nil {
			m.failures.Inc()
			return
		}
		m.latency.Observe(time.Since(start).Seconds())
		m.score.Set(res.Score)
	}()

	res, err = scorer.Score(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("scorer returned no result for %s", req.MetricName)
	}
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		return nil, fmt.Errorf("scorer returned non-finite score %v for %s", res.Score, req.MetricName)
	}
	if res.Latency == nil {
		latency := time.Since(start).Seconds()
		res.Latency = &latency
	}
	return res, nil
}
