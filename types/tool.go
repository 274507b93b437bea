package types

import (
	"encoding/json"
	"time"
)

// ToolParameters is the JSON-schema-like parameter spec of a tool:
// the full set of allowed parameter names plus the required subset.
type ToolParameters struct {
	Type       string                     `json:"type,omitempty"`
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
}

// ToolSchema defines a tool's interface for function calling.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolResult represents the outcome of a tool execution as data.
// A handler fault never propagates as a panic or error value; it is
// recorded here with Success=false.
type ToolResult struct {
	Name     string          `json:"name"`
	Success  bool            `json:"success"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
}

// ToItem converts the result into a tool-role conversation item payload.
func (tr ToolResult) ToItem(sessionID string) ConversationItem {
	text := string(tr.Result)
	if !tr.Success {
		text = "Error: " + tr.Error
	}
	return ConversationItem{
		SessionID: sessionID,
		Role:      RoleTool,
		Content:   []ContentPart{{Type: ContentPartText, Text: text}},
	}
}

// TokenUsage represents token consumption statistics for one response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Add adds another TokenUsage to this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// RateLimitStatus is a point-in-time quota snapshot for one session.
type RateLimitStatus struct {
	RequestsLimit     int     `json:"requests_limit"`
	RequestsRemaining int     `json:"requests_remaining"`
	TokensLimit       int     `json:"tokens_limit"`
	TokensRemaining   int     `json:"tokens_remaining"`
	ResetSeconds      float64 `json:"reset_seconds"`
}
