/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracectx

import (
	"context"
	"slices"
	"sync"

	"chainguard.dev/spantree/agents/agenttrace"
)

// Active is the component currently running on a call chain. Network calls
// and interactions observed while it runs are attributed to it.
type Active struct {
	ID string

	mu           sync.Mutex
	networkCalls []agenttrace.NetworkCall
	interactions []agenttrace.Interaction
}

// NewActive creates the running state for component id.
func NewActive(id string) *Active {
	return &Active{ID: id}
}

// RecordNetworkCall attributes an outbound request to the component.
func (a *Active) RecordNetworkCall(nc agenttrace.NetworkCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.networkCalls = append(a.networkCalls, nc)
}

// RecordInteraction attributes an interaction to the component.
func (a *Active) RecordInteraction(i agenttrace.Interaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interactions = append(a.interactions, i)
}

// NetworkCalls returns the recorded network calls.
func (a *Active) NetworkCalls() []agenttrace.NetworkCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.networkCalls)
}

// Interactions returns the recorded interactions.
func (a *Active) Interactions() []agenttrace.Interaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.interactions)
}

type activeKey struct{}

// WithComponent returns a context in which a is the running component.
func WithComponent(ctx context.Context, a *Active) context.Context {
	return context.WithValue(ctx, activeKey{}, a)
}

// ActiveComponent returns the running component, or nil outside any.
func ActiveComponent(ctx context.Context) *Active {
	if a, ok := ctx.Value(activeKey{}).(*Active); ok {
		return a
	}
	return nil
}
