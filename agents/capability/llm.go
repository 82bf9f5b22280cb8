/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package capability

import (
	"context"
	"fmt"

	"chainguard.dev/spantree/agents/extract"
	"chainguard.dev/spantree/agents/tracer"
)

// LLM is a provider capability: a set of named entry points that share one
// request and response shape.
type LLM[Req, Resp any] struct {
	name      string
	extractor extract.Extractor[Req, Resp]
	members   []string
	slots     map[string]*Slot[Req, Resp]
}

var _ tracer.Capability = (*LLM[string, string])(nil)

// NewLLM creates a capability named name whose calls are described by x.
func NewLLM[Req, Resp any](name string, x extract.Extractor[Req, Resp]) *LLM[Req, Resp] {
	return &LLM[Req, Resp]{
		name:      name,
		extractor: x,
		slots:     make(map[string]*Slot[Req, Resp]),
	}
}

// Bind adds the entry point member and returns its slot.
func (l *LLM[Req, Resp]) Bind(member string, fn func(context.Context, Req) (Resp, error)) *Slot[Req, Resp] {
	s := NewSlot(fn)
	if _, ok := l.slots[member]; !ok {
		l.members = append(l.members, member)
	}
	l.slots[member] = s
	return s
}

// Slot returns the slot for member, or nil.
func (l *LLM[Req, Resp]) Slot(member string) *Slot[Req, Resp] {
	return l.slots[member]
}

// Name implements tracer.Capability.
func (l *LLM[Req, Resp]) Name() string {
	return l.name
}

// Install implements tracer.Capability.
func (l *LLM[Req, Resp]) Install(t *tracer.Tracer) ([]tracer.Patch, error) {
	if len(l.members) == 0 {
		return nil, fmt.Errorf("capability %s has no entry points", l.name)
	}
	if l.extractor == nil {
		return nil, fmt.Errorf("capability %s has no extractor", l.name)
	}

	patches := make([]tracer.Patch, 0, len(l.members))
	for _, member := range l.members {
		restore := l.slots[member].swap(func(next func(context.Context, Req) (Resp, error)) func(context.Context, Req) (Resp, error) {
			return tracer.InterceptLLM(t, member, l.extractor, next)
		})
		patches = append(patches, tracer.NewPatch(l.name, member, restore))
	}
	return patches, nil
}
