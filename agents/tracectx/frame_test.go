/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracectx

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestParentIDAtRoot(t *testing.T) {
	ctx := context.Background()
	if got := ParentID(ctx); got != nil {
		t.Errorf("ParentID() at root: got = %v, wanted = nil", *got)
	}
	if got := CurrentAgent(ctx); got != nil {
		t.Errorf("CurrentAgent() at root: got = %v, wanted = nil", got)
	}
}

func TestNestedAgents(t *testing.T) {
	ctx := context.Background()

	outerCtx, outer := WithAgent(ctx, "outer")
	innerCtx, inner := WithAgent(outerCtx, "inner")

	if got := *ParentID(outerCtx); got != "outer" {
		t.Errorf("ParentID(outer): got = %q, wanted = %q", got, "outer")
	}
	if got := *ParentID(innerCtx); got != "inner" {
		t.Errorf("ParentID(inner): got = %q, wanted = %q", got, "inner")
	}
	if inner.Parent() != outer {
		t.Errorf("inner parent: got = %v, wanted = %v", inner.Parent(), outer)
	}
	if diff := cmp.Diff([]string{"outer", "inner"}, inner.Ancestors()); diff != "" {
		t.Errorf("ancestors (-want +got):\n%s", diff)
	}

	// Leaving the inner agent is just dropping its context.
	if got := *ParentID(outerCtx); got != "outer" {
		t.Errorf("ParentID after inner: got = %q, wanted = %q", got, "outer")
	}
}

func TestFrameAdoptAndClose(t *testing.T) {
	_, f := WithAgent(context.Background(), "agent")

	a := &agenttrace.Component{ID: "a"}
	b := &agenttrace.Component{ID: "b"}
	if !f.Adopt(a) || !f.Adopt(b) {
		t.Fatal("Adopt() before close: got = false, wanted = true")
	}

	children := f.Close()
	if len(children) != 2 || children[0] != a || children[1] != b {
		t.Errorf("Close() children: got = %v, wanted = [a b]", children)
	}

	if f.Adopt(&agenttrace.Component{ID: "late"}) {
		t.Error("Adopt() after close: got = true, wanted = false")
	}
	if got := f.Close(); got != nil {
		t.Errorf("second Close(): got = %v, wanted = nil", got)
	}
}

func TestFrameAdoptConcurrent(t *testing.T) {
	_, f := WithAgent(context.Background(), "agent")

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			f.Adopt(&agenttrace.Component{ID: fmt.Sprint(i)})
		})
	}
	wg.Wait()

	if got := len(f.Close()); got != 100 {
		t.Errorf("children: got = %d, wanted = 100", got)
	}
}

func TestConcurrentChainsAreIsolated(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		chains := rapid.IntRange(2, 6).Draw(rt, "chains")
		depth := rapid.IntRange(1, 8).Draw(rt, "depth")

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			errors []string
		)
		start := make(chan struct{})
		for c := range chains {
			wg.Go(func() {
				<-start
				ctx := context.Background()
				for d := range depth {
					want := fmt.Sprintf("chain-%d-depth-%d", c, d)
					var f *Frame
					ctx, f = WithAgent(ctx, want)
					runtime.Gosched()
					if got := CurrentAgent(ctx); got != f || got.ID != want {
						mu.Lock()
						errors = append(errors, fmt.Sprintf("chain %d depth %d: got %v, wanted %s", c, d, got, want))
						mu.Unlock()
					}
					f.Adopt(&agenttrace.Component{ID: want, ParentID: ParentID(ctx)})
				}
			})
		}
		close(start)
		wg.Wait()

		if len(errors) > 0 {
			rt.Fatalf("cross-contamination: %v", errors)
		}
	})
}
