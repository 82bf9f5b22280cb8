/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package cost converts token usage into monetary cost using a per-model
// price table.
package cost

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"os"
	"strings"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/chainguard-dev/clog"
	"gopkg.in/yaml.v3"
)

// DefaultModel is the entry used for models missing from the table.
const DefaultModel = "default"

//go:embed prices.json
var defaultPrices []byte

// Price is the per-token price of a model in USD.
type Price struct {
	InputCostPerToken  float64 `json:"input_cost_per_token" yaml:"input_cost_per_token"`
	OutputCostPerToken float64 `json:"output_cost_per_token" yaml:"output_cost_per_token"`
}

// Table maps model names to prices. The zero value prices everything at zero.
type Table struct {
	prices map[string]Price
}

// Default returns the embedded price table.
func Default() *Table {
	t, err := Parse(defaultPrices)
	if err != nil {
		// The embedded table is part of the build.
		panic(fmt.Sprintf("parsing embedded prices: %v", err))
	}
	return t
}

// Parse reads a JSON or YAML mapping of model name to Price. A zero-cost
// default entry is added when the document has none.
func Parse(b []byte) (*Table, error) {
	prices := map[string]Price{}
	if err := yaml.Unmarshal(b, &prices); err != nil {
		return nil, fmt.Errorf("parsing price table: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("parsing price table: no models")
	}
	if _, ok := prices[DefaultModel]; !ok {
		prices[DefaultModel] = Price{}
	}
	return &Table{prices: prices}, nil
}

// LoadFile reads the table at path. A missing or malformed file is logged and
// the embedded defaults are returned instead.
func LoadFile(ctx context.Context, path string) *Table {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		clog.WarnContextf(ctx, "Reading cost table %s, using defaults: %v", path, err)
		return Default()
	}
	t, err := Parse(b)
	if err != nil {
		clog.WarnContextf(ctx, "Cost table %s is malformed, using defaults: %v", path, err)
		return Default()
	}
	return t
}

// With returns a copy of the table with the given prices added or replaced.
func (t *Table) With(prices map[string]Price) *Table {
	out := &Table{prices: make(map[string]Price, len(t.prices)+len(prices))}
	maps.Copy(out.prices, t.prices)
	maps.Copy(out.prices, prices)
	return out
}

// Lookup returns the price for model. Resolution tries the exact name, then
// the name after its last "/", then the longest key that prefixes the name
// up to a "-" or "@" separator, and finally the default entry.
func (t *Table) Lookup(model string) (Price, bool) {
	if t == nil || t.prices == nil {
		return Price{}, false
	}
	if p, ok := t.prices[model]; ok {
		return p, true
	}
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
		if p, ok := t.prices[model]; ok {
			return p, true
		}
	}

	best := ""
	for key := range t.prices {
		if len(key) <= len(best) || len(key) >= len(model) || !strings.HasPrefix(model, key) {
			continue
		}
		if sep := model[len(key)]; sep == '-' || sep == '@' {
			best = key
		}
	}
	if best != "" {
		return t.prices[best], true
	}
	return t.prices[DefaultModel], false
}

// Calculate prices usage for model. Unknown models cost nothing.
func (t *Table) Calculate(usage agenttrace.TokenUsage, model string) agenttrace.Cost {
	p, _ := t.Lookup(model)
	in := float64(usage.PromptTokens) * p.InputCostPerToken
	out := float64(usage.CompletionTokens) * p.OutputCostPerToken
	return agenttrace.Cost{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in + out,
	}
}

// Models returns the number of priced models, including the default entry.
func (t *Table) Models() int {
	if t == nil {
		return 0
	}
	return len(t.prices)
}
