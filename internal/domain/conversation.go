package domain

// ToolCall is a request, emitted by the model, to invoke a named
// capability with structured arguments.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message represents one role-tagged turn in a thread's timeline.
//
// An assistant message may carry zero or more tool calls alongside free
// text. A tool message carries the result of exactly one prior tool call;
// its ToolCallID must reference a call previously emitted by an assistant
// message in the same thread.
type Message struct {
	ID       MessageID
	ThreadID ThreadID
	Role     Role
	Content  string

	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string

	CreatedAt Timestamp
}

// Thread is one conversation session. The thread id is minted per session
// (the client keeps it between turns); the message log is persisted server
// side for the lifetime of the store.
type Thread struct {
	ID        ThreadID
	CreatedAt Timestamp
	UpdatedAt Timestamp
}
