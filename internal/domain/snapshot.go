package domain

// ContextSnapshot is the client-reported UI state, supplied fresh on every
// request. The orchestrator never persists it; it only scopes which tools
// and which injected context apply to the current turn.
type ContextSnapshot struct {
	Page      string            `json:"page"`
	Component string            `json:"component"`
	PostID    PostID            `json:"postId,omitempty"`
	NoteID    NoteID            `json:"noteId,omitempty"`
	PageState map[string]string `json:"pageState,omitempty"`
}

// GuardrailDecision is the outcome of the pre-flight topical check.
type GuardrailDecision struct {
	IsAllowed      bool   `json:"isAllowed"`
	RefusalMessage string `json:"refusalMessage,omitempty"`
}
