package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Message is one role-tagged entry in a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Recognized message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Stats reports cumulative usage for a single adapter.
type Stats struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Calls       int64  `json:"calls"`
	TotalTokens int64  `json:"total_tokens"`
}

// Completer is the capability every completion backend exposes: given a
// message list and a temperature, return text expected to be JSON.
type Completer interface {
	Name() string
	Complete(ctx context.Context, messages []Message, temperature float32) (string, error)
	Stats() Stats
}

// ErrDisabled indicates the adapter has no usable credentials and must be
// skipped at construction time.
var ErrDisabled = errors.New("provider credentials missing")

// ErrRefused indicates the backend declined to answer (safety block or empty
// result) rather than failing at the transport level.
var ErrRefused = errors.New("provider refused to answer")

// normalizeJSONBlock strips markdown code fences and surrounding prose so the
// remainder can be parsed as a single JSON object.
func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func validJSON(text string) bool {
	return json.Valid([]byte(text))
}
