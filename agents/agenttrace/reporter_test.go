/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestByCode(t *testing.T) {
	ctx := context.Background()
	var captured *Trace

	reporter := ByCode(func(trace *Trace) {
		captured = trace
	})

	trace := NewTrace(ctx, ProjectInfo{ProjectName: randomString()})
	trace.Complete(ctx)
	if err := reporter.Report(ctx, trace); err != nil {
		t.Fatalf("Report() = %v", err)
	}

	if captured != trace {
		t.Errorf("captured trace: got = %v, wanted = %v", captured, trace)
	}
}

func TestByCodeWithNilCallback(t *testing.T) {
	ctx := context.Background()
	reporter := ByCode(nil)

	// Should not panic
	if err := reporter.Report(ctx, NewTrace(ctx, ProjectInfo{})); err != nil {
		t.Errorf("Report() = %v", err)
	}
}

func TestByCodeWithMultipleCallbacks(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	captured := make([]*Trace, 3)

	callbacks := make([]TraceCallback, 3)
	for i := range callbacks {
		callbacks[i] = func(trace *Trace) {
			mu.Lock()
			defer mu.Unlock()
			captured[i] = trace
		}
	}

	trace := NewTrace(ctx, ProjectInfo{})
	if err := ByCode(callbacks...).Report(ctx, trace); err != nil {
		t.Fatalf("Report() = %v", err)
	}

	for i, got := range captured {
		if got != trace {
			t.Errorf("Callback %d received different trace", i+1)
		}
	}
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("rejected")

	var calls int
	var mu sync.Mutex
	ok := ReporterFunc(func(context.Context, *Trace) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	})
	bad := ReporterFunc(func(context.Context, *Trace) error {
		return wantErr
	})

	if err := Multi(ok, nil, ok).Report(ctx, NewTrace(ctx, ProjectInfo{})); err != nil {
		t.Errorf("Report() = %v, wanted nil", err)
	}
	if calls != 2 {
		t.Errorf("calls: got = %d, wanted = 2", calls)
	}

	if err := Multi(ok, bad).Report(ctx, NewTrace(ctx, ProjectInfo{})); !errors.Is(err, wantErr) {
		t.Errorf("Report() = %v, wanted %v", err, wantErr)
	}
}

func TestDefaultReporter(t *testing.T) {
	ctx := context.Background()
	trace := NewTrace(ctx, ProjectInfo{ProjectName: randomString()})
	trace.AddComponent(&Component{ID: randomString(), Name: randomString(), Type: TypeTool})
	trace.Complete(ctx)

	if err := NewDefaultReporter(ctx).Report(ctx, trace); err != nil {
		t.Errorf("Report() = %v", err)
	}
}
