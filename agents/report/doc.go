/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report hands finished traces to their destinations.
//
// Table renders the component tree as a markdown table, which is handy for
// local runs and CI logs:
//
//	tr, err := tracer.New(ctx, tracer.WithReporter(report.Table(os.Stdout)))
//
// NewHTTP posts the trace payload to a collection service. A rejected
// payload is reported as an error, which the tracer logs and otherwise
// ignores:
//
//	r, err := report.NewHTTP("https://traces.example.com/v1/traces",
//		report.WithToken(os.Getenv("TRACE_TOKEN")))
//
// PayloadSchema describes the JSON document NewHTTP sends.
package report
