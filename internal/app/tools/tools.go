// Package tools defines the capabilities the agent may invoke. Tools are
// registered in a registry keyed by identifier and resolved per turn from
// the context-key manifest; new capabilities are added by registration,
// not by editing a central conditional.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cadencehq/cadence-agent/internal/app/captioning"
	"github.com/cadencehq/cadence-agent/internal/domain"
)

// ToolContext carries caller metadata into a tool invocation.
type ToolContext struct {
	UserID     domain.UserID
	CalendarID domain.CalendarID
	Snapshot   *domain.ContextSnapshot
}

// Tool represents a callable capability.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the argument shape.
	Parameters map[string]any
	// ReturnDirect marks client-deferred tools: emitting such a call ends
	// the model's turn immediately and the call is surfaced to the client
	// for confirmation instead of being looped back into the model.
	ReturnDirect bool
	Handler      func(ctx context.Context, tc ToolContext, args map[string]any) (string, error)
}

// Declaration renders the tool for the model's tool list.
func (t *Tool) Declaration() domain.ChatTool {
	return domain.ChatTool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Deps are the collaborators tool factories close over.
type Deps struct {
	Repo      domain.ContentRepository
	Captioner *captioning.Generator
}

// Factory builds a tool instance for one turn.
type Factory func(deps Deps) *Tool

// Registry maps tool identifiers to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with all built-in capabilities.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register(ToolListPosts, newListPostsTool)
	r.Register(ToolGetPost, newGetPostTool)
	r.Register(ToolGetCurrentPost, newGetCurrentPostTool)
	r.Register(ToolGetBrandRules, newGetBrandRulesTool)
	r.Register(ToolListMedia, newListMediaTool)
	r.Register(ToolGenerateCaption, newGenerateCaptionTool)
	r.Register(ToolGradeCaption, newGradeCaptionTool)

	r.Register(ToolNavigateToCalendar, newNavigateToCalendarTool)
	r.Register(ToolCreatePost, newCreatePostTool)
	r.Register(ToolOpenPost, newOpenPostTool)
	r.Register(ToolApplyCaption, newApplyCaptionTool)

	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build instantiates a tool by identifier. ok is false for unknown
// identifiers.
func (r *Registry) Build(name string, deps Deps) (*Tool, bool) {
	f, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return f(deps), true
}

// --- argument helpers --- //

func getString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requireString(args map[string]any, key string) (string, error) {
	s := getString(args, key)
	if s == "" {
		return "", &domain.ValidationError{Field: key, Reason: "is required"}
	}
	return s, nil
}

func getInt(args map[string]any, key string) int {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func marshalResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(b), nil
}

// objectSchema builds a JSON-schema object from property definitions.
func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}
