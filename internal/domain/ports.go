package domain

import "context"

// ChatTool declares one callable capability to the model. Parameters is a
// JSON-schema object describing the argument shape.
type ChatTool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is one model invocation with full thread history.
type ChatRequest struct {
	System   string
	Messages []*Message
	Tools    []ChatTool

	// OnToken, when set, receives content tokens as the model produces
	// them. Delivery is best-effort; the final Content is authoritative.
	OnToken func(token string)
}

// ChatResponse is what the model produced for one invocation: free text,
// tool calls, or both.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// LLMClient defines how the application interacts with the language model.
type LLMClient interface {
	// Chat runs a conversational completion with optional tools.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GenerateText runs a single free-text completion.
	GenerateText(ctx context.Context, system, prompt string) (string, error)

	// GenerateJSON runs a completion constrained to the given JSON schema
	// and unmarshals the result into out.
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any, out any) error
}

// Embedder produces vector embeddings for relevance search. Queries and
// documents use distinct task types, so they embed differently.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// ThreadStore persists message history keyed by thread id.
type ThreadStore interface {
	AppendMessages(ctx context.Context, threadID ThreadID, msgs ...*Message) error
	GetMessages(ctx context.Context, threadID ThreadID) ([]*Message, error)
}

// ContentRepository reads calendar-scoped content. Every method verifies
// the (userID, calendarID) pair and fails with ErrForbidden when the
// caller lacks access to the calendar.
type ContentRepository interface {
	GetBrandRules(ctx context.Context, userID UserID, calendarID CalendarID) ([]*BrandRule, error)
	GetPosts(ctx context.Context, userID UserID, calendarID CalendarID) ([]*Post, error)
	GetPost(ctx context.Context, userID UserID, calendarID CalendarID, id PostID) (*Post, error)
	GetNote(ctx context.Context, userID UserID, calendarID CalendarID, id NoteID) (*Note, error)
	GetMediaByCalendar(ctx context.Context, userID UserID, calendarID CalendarID) ([]*MediaItem, error)
}
