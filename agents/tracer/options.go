/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"errors"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/cost"
	"chainguard.dev/spantree/agents/scoring"
	"chainguard.dev/spantree/agents/spanattrs"
)

// Option is a functional option for configuring the tracer
type Option func(*Tracer) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(t *Tracer) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		t.cfg = cfg
		return nil
	}
}

// WithProject sets the project traces are grouped under. It takes precedence
// over the project fields of the configuration.
func WithProject(p agenttrace.ProjectInfo) Option {
	return func(t *Tracer) error {
		if p.ProjectName == "" {
			return errors.New("project name cannot be empty")
		}
		t.project = &p
		return nil
	}
}

// WithReporter sets where finished traces are handed off.
func WithReporter(r agenttrace.Reporter) Option {
	return func(t *Tracer) error {
		if r == nil {
			return errors.New("reporter cannot be nil")
		}
		t.reporter = r
		return nil
	}
}

// WithScorer sets the scorer used for locally requested metrics.
func WithScorer(s scoring.Scorer) Option {
	return func(t *Tracer) error {
		if s == nil {
			return errors.New("scorer cannot be nil")
		}
		t.scorer = s
		return nil
	}
}

// WithCostTable sets the price table. It overrides Config.CostTablePath.
func WithCostTable(tbl *cost.Table) Option {
	return func(t *Tracer) error {
		if tbl == nil {
			return errors.New("cost table cannot be nil")
		}
		t.prices = tbl
		return nil
	}
}

// WithSpanAttributes shares a span attribute registry with the tracer.
func WithSpanAttributes(r *spanattrs.Registry) Option {
	return func(t *Tracer) error {
		if r == nil {
			return errors.New("span attribute registry cannot be nil")
		}
		t.attrs = r
		return nil
	}
}
