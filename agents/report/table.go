/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

var tableHeaders = []string{"Component", "Type", "Duration", "Model", "Tokens", "Cost", "Metrics", "Status"}

// createStandardTable creates a table writer with the markdown formatting
// used by every report.
func createStandardTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// Table returns a Reporter that writes a summary and the component tree of
// each trace to w as markdown.
func Table(w io.Writer) agenttrace.Reporter {
	return agenttrace.ReporterFunc(func(_ context.Context, trace *agenttrace.Trace) error {
		return writeTable(w, trace)
	})
}

func writeTable(w io.Writer, trace *agenttrace.Trace) error {
	totals := trace.Totals()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Trace %s\n\n", trace.ID))
	if trace.Project.ProjectName != "" {
		sb.WriteString(fmt.Sprintf("Project: %s", trace.Project.ProjectName))
		if trace.Project.DatasetName != "" {
			sb.WriteString(fmt.Sprintf(" / %s", trace.Project.DatasetName))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Duration: %s, components: %d, errors: %d, tokens: %d, cost: $%.6f\n\n",
		formatDuration(trace.Duration()), totals.Components, totals.Errors,
		totals.Tokens.TotalTokens, totals.Cost.TotalCost))
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing trace summary: %w", err)
	}

	table := createStandardTable(tableHeaders, w)
	trace.Walk(func(c *agenttrace.Component, depth int) bool {
		_ = table.Append(componentRow(c, depth))
		return true
	})
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering trace table: %w", err)
	}
	return nil
}

func componentRow(c *agenttrace.Component, depth int) []string {
	name := c.Name
	if depth > 0 {
		name = strings.Repeat("  ", depth-1) + "└ " + c.Name
	}

	model, tokens, cost := "-", "-", "-"
	if c.Info.Model != "" {
		model = c.Info.Model
	}
	if c.Info.Tokens != nil {
		tokens = fmt.Sprintf("%d", c.Info.Tokens.TotalTokens)
	}
	if c.Info.Cost != nil {
		cost = fmt.Sprintf("$%.6f", c.Info.Cost.TotalCost)
	}

	metrics := "-"
	if len(c.Metrics) > 0 {
		parts := make([]string, 0, len(c.Metrics))
		for _, m := range c.Metrics {
			parts = append(parts, fmt.Sprintf("%s=%.2f", m.Name, m.Score))
		}
		metrics = strings.Join(parts, " ")
	}

	status := "ok"
	if c.Error != nil {
		status = fmt.Sprintf("❌ %d %s", c.Error.Code, c.Error.Message)
	}

	return []string{name, string(c.Type), formatDuration(c.Duration()), model, tokens, cost, metrics, status}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
