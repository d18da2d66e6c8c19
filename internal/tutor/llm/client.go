// Package llm wraps the chat-completion provider behind a small client
// interface so the agent can be tested with a fake.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrAPIKeyNotSet     = errors.New("GROQ_API_KEY environment variable not set")
	ErrAPIRequestFailed = errors.New("chat completion request failed")
	ErrNoChoices        = errors.New("chat completion returned no choices")

	// ErrTransientGeneration marks provider failures worth retrying: the
	// model emitted a malformed tool call or the generation itself failed.
	ErrTransientGeneration = errors.New("transient generation failure")
)

// Chat message roles on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat turn in provider wire format.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is one function invocation requested by the model. Arguments is
// the raw JSON string as the provider sent it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares one callable function to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Completion is the model's reply: either content, tool calls, or both.
type Completion struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
}

// Client produces chat completions. Implementations must return an error
// wrapping ErrTransientGeneration for failures a bounded retry can fix.
type Client interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error)
}
