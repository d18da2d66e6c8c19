package agent

// Event types emitted during a streamed ask, in the order the run produces
// them: zero or more tool_call/tool_result pairs, one answer, one done.
const (
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventAnswer     = "answer"
	EventDone       = "done"
)

// Event is one progress notification from an in-flight ask.
type Event struct {
	Type string `json:"type"`
	// Name is the tool name for tool_call and tool_result events.
	Name string `json:"name,omitempty"`
	// Content carries tool arguments, tool output, or the final answer.
	Content string `json:"content,omitempty"`
}

// EmitFunc receives events as they happen. A nil EmitFunc disables
// streaming without changing the run's behavior.
type EmitFunc func(Event)
