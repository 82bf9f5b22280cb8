/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracer

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/spantree/agents/retry"
	"github.com/sethvargo/go-envconfig"
)

// Config is the tracer's configuration surface. Each Instrument toggle gates
// one kind of component or one optional enrichment independently.
type Config struct {
	ProjectName string `env:"TRACE_PROJECT_NAME"`
	DatasetName string `env:"TRACE_DATASET_NAME"`
	TracerType  string `env:"TRACE_TRACER_TYPE,default=agentic"`

	InstrumentLLM             bool `env:"TRACE_INSTRUMENT_LLM,default=true"`
	InstrumentTools           bool `env:"TRACE_INSTRUMENT_TOOLS,default=true"`
	InstrumentAgents          bool `env:"TRACE_INSTRUMENT_AGENTS,default=true"`
	InstrumentUserInteraction bool `env:"TRACE_INSTRUMENT_USER_INTERACTION,default=false"`
	InstrumentNetwork         bool `env:"TRACE_INSTRUMENT_NETWORK,default=false"`
	InstrumentFileIO          bool `env:"TRACE_INSTRUMENT_FILE_IO,default=false"`

	// CostTablePath points at a JSON or YAML price table. Empty uses the
	// built-in table.
	CostTablePath string `env:"TRACE_COST_TABLE"`
	// MaxParameters caps the scalar parameters kept on a component.
	MaxParameters int `env:"TRACE_MAX_PARAMETERS,default=10"`

	// ReportURL, when set, delivers finished traces to a collection service.
	ReportURL string       `env:"TRACE_REPORT_URL"`
	Retry     retry.Config `env:", prefix=TRACE_REPORT_"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		TracerType:       "agentic",
		InstrumentLLM:    true,
		InstrumentTools:  true,
		InstrumentAgents: true,
		MaxParameters:    10,
		Retry:            retry.Default(),
	}
}

// LoadConfig reads the configuration from TRACE_* environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("processing tracer config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the tracer cannot use.
func (c Config) Validate() error {
	if c.MaxParameters < 0 {
		return errors.New("max parameters cannot be negative")
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("invalid report retry config: %w", err)
	}
	return nil
}
