/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"fmt"
	"strings"
)

// Message is one turn of a conversational payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationText collapses a conversational payload into a single block of
// text: the trimmed content of each message, joined by newlines. It accepts
// message slices, maps carrying a "messages" or "content" key, and strings.
func ConversationText(v any) string {
	parts := conversationParts(v)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

func conversationParts(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case fmt.Stringer:
		return []string{v.String()}
	case Message:
		return []string{v.Content}
	case *Message:
		if v == nil {
			return nil
		}
		return []string{v.Content}
	case []Message:
		parts := make([]string, 0, len(v))
		for _, m := range v {
			parts = append(parts, m.Content)
		}
		return parts
	case []string:
		return v
	case []any:
		var parts []string
		for _, e := range v {
			parts = append(parts, conversationParts(e)...)
		}
		return parts
	case []map[string]any:
		var parts []string
		for _, m := range v {
			parts = append(parts, conversationParts(m)...)
		}
		return parts
	case map[string]any:
		if msgs, ok := v["messages"]; ok {
			return conversationParts(msgs)
		}
		if content, ok := v["content"]; ok {
			return conversationParts(content)
		}
		if text, ok := v["text"]; ok {
			return conversationParts(text)
		}
		return []string{fmt.Sprint(v)}
	default:
		return []string{fmt.Sprint(v)}
	}
}
