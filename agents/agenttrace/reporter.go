/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Reporter receives finished traces. An error means the trace was rejected
// or could not be delivered; callers log it and move on.
type Reporter interface {
	Report(ctx context.Context, trace *Trace) error
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(ctx context.Context, trace *Trace) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, trace *Trace) error {
	return f(ctx, trace)
}

// TraceCallback is a function that receives completed traces
type TraceCallback func(*Trace)

// byCodeReporter implements Reporter by invoking callback functions
type byCodeReporter struct {
	callbacks []TraceCallback
}

// ByCode creates a new Reporter that invokes the given callbacks when traces are reported
func ByCode(callbacks ...TraceCallback) Reporter {
	return &byCodeReporter{
		callbacks: callbacks,
	}
}

// Report invokes all callbacks with the completed trace in parallel
func (r *byCodeReporter) Report(_ context.Context, trace *Trace) error {
	g := new(errgroup.Group)

	for _, callback := range r.callbacks {
		if callback != nil {
			g.Go(func() error {
				callback(trace)
				return nil
			})
		}
	}

	// Callbacks never fail, so Wait only synchronizes.
	return g.Wait()
}

// Multi fans a trace out to every reporter in parallel and joins their errors.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(ctx context.Context, trace *Trace) error {
		g, ctx := errgroup.WithContext(ctx)
		for _, r := range reporters {
			if r != nil {
				g.Go(func() error {
					return r.Report(ctx, trace)
				})
			}
		}
		return g.Wait()
	})
}
