/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"chainguard.dev/spantree/agents/tracectx"
	"github.com/google/uuid"
)

// Transport returns a RoundTripper that attributes each request to the
// component running in the request's context. The calls are kept on the
// component when network instrumentation is on.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base}
}

type transport struct {
	base http.RoundTripper
}

func (rt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	active := tracectx.ActiveComponent(req.Context())
	if active == nil {
		return rt.base.RoundTrip(req)
	}

	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	nc := agenttrace.NetworkCall{
		Method:       req.Method,
		URL:          req.URL.Redacted(),
		StartTime:    agenttrace.Timestamp(start),
		EndTime:      agenttrace.Timestamp(time.Now()),
		RequestBytes: max(req.ContentLength, 0),
	}
	if err != nil {
		nc.Error = err.Error()
	} else {
		nc.StatusCode = resp.StatusCode
		nc.ResponseBytes = max(resp.ContentLength, 0)
	}
	active.RecordNetworkCall(nc)
	return resp, err
}

func recordInteraction(ctx context.Context, typ agenttrace.InteractionType, content string) {
	active := tracectx.ActiveComponent(ctx)
	if active == nil {
		return
	}
	active.RecordInteraction(agenttrace.Interaction{
		ID:        uuid.NewString(),
		Type:      typ,
		Content:   content,
		Timestamp: agenttrace.Timestamp(time.Now()),
	})
}

// Reader returns a reader that records what is read from r as user input
// to the component running in ctx.
func Reader(ctx context.Context, r io.Reader) io.Reader {
	return &interactionReader{ctx: ctx, r: r}
}

type interactionReader struct {
	ctx context.Context
	r   io.Reader
}

func (ir *interactionReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		recordInteraction(ir.ctx, agenttrace.InteractionInput, string(p[:n]))
	}
	return n, err
}

// Writer returns a writer that records what is written to w as output to
// the user from the component running in ctx.
func Writer(ctx context.Context, w io.Writer) io.Writer {
	return &interactionWriter{ctx: ctx, w: w}
}

type interactionWriter struct {
	ctx context.Context
	w   io.Writer
}

func (iw *interactionWriter) Write(p []byte) (int, error) {
	n, err := iw.w.Write(p)
	if n > 0 {
		recordInteraction(iw.ctx, agenttrace.InteractionOutput, string(p[:n]))
	}
	return n, err
}

// ReadFile reads the named file and records the read on the component
// running in ctx.
func ReadFile(ctx context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if err == nil {
		recordInteraction(ctx, agenttrace.InteractionFileRead, name)
	}
	return b, err
}

// WriteFile writes data to the named file and records the write on the
// component running in ctx.
func WriteFile(ctx context.Context, name string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(name, data, perm)
	if err == nil {
		recordInteraction(ctx, agenttrace.InteractionFileWrite, name)
	}
	return err
}
