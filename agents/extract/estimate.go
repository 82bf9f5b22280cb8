/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package extract

import (
	"sync"

	"chainguard.dev/spantree/agents/agenttrace"
	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

var (
	encodersMu sync.Mutex
	encoders   = map[string]*tiktoken.Tiktoken{}
)

// encoderFor returns the tokenizer for model, or the cl100k_base encoding
// for models tiktoken does not know. It returns nil when no encoding can be
// loaded.
func encoderFor(model string) *tiktoken.Tiktoken {
	encodersMu.Lock()
	defer encodersMu.Unlock()

	if enc, ok := encoders[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			enc = nil
		}
	}
	encoders[model] = enc
	return enc
}

// CountTokens counts the tokens of text for model, falling back to four
// characters per token when no tokenizer is available.
func CountTokens(model, text string) int64 {
	if text == "" {
		return 0
	}
	enc := encoderFor(model)
	if enc == nil {
		return int64(len(text)+3) / 4
	}
	encodersMu.Lock()
	defer encodersMu.Unlock()
	return int64(len(enc.Encode(text, nil, nil)))
}

// EstimateUsage approximates token usage for providers that omit it, such as
// streamed responses.
func EstimateUsage(model, prompt, completion string) agenttrace.TokenUsage {
	return agenttrace.TokenUsage{
		PromptTokens:     CountTokens(model, prompt),
		CompletionTokens: CountTokens(model, completion),
	}.Normalize()
}
