// Package guardrail runs the pre-flight topical check on each user
// message. It can short-circuit a turn before any tool or model work
// happens, but it fails open: a broken guardrail must never block all
// traffic.
package guardrail

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

// historyWindow is how many trailing messages give the classifier
// topical context.
const historyWindow = 4

// DefaultRefusal is used when the classifier denies a message without
// supplying its own refusal text.
const DefaultRefusal = "I can only help with planning, writing and scheduling your content. What would you like to work on?"

var decisionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"isAllowed": map[string]any{
			"type":        "boolean",
			"description": "whether the message is in scope for a content-scheduling assistant",
		},
		"refusalMessage": map[string]any{
			"type":        "string",
			"description": "short, friendly refusal shown to the user when isAllowed is false",
		},
	},
	"required": []string{"isAllowed"},
}

// Validator classifies the latest user message as on-topic or off-topic.
type Validator struct {
	llm domain.LLMClient
}

func NewValidator(llm domain.LLMClient) *Validator {
	return &Validator{llm: llm}
}

// Check classifies the latest user message using the recent history for
// context. Any validator error results in an allow decision.
func (v *Validator) Check(ctx context.Context, history []*domain.Message, latest string) domain.GuardrailDecision {
	log := observability.LoggerFromContext(ctx)

	var out struct {
		IsAllowed      bool   `json:"isAllowed"`
		RefusalMessage string `json:"refusalMessage"`
	}
	if err := v.llm.GenerateJSON(ctx, v.buildPrompt(history, latest), decisionSchema, &out); err != nil {
		// Fail open. A broken guardrail must never block the user.
		log.Warn("guardrail check failed, allowing message", "error", err)
		return domain.GuardrailDecision{IsAllowed: true}
	}

	if out.IsAllowed {
		return domain.GuardrailDecision{IsAllowed: true}
	}

	refusal := strings.TrimSpace(out.RefusalMessage)
	if refusal == "" {
		refusal = DefaultRefusal
	}
	log.Info("guardrail blocked message")
	return domain.GuardrailDecision{IsAllowed: false, RefusalMessage: refusal}
}

func (v *Validator) buildPrompt(history []*domain.Message, latest string) string {
	var b strings.Builder
	b.WriteString("You are a relevance filter for a content-scheduling assistant. ")
	b.WriteString("In scope: social media posts, captions, scheduling, brand voice, notes, media, and the user's content calendar. ")
	b.WriteString("Out of scope: anything unrelated to planning or producing the user's content.\n\n")

	tail := history
	if len(tail) > historyWindow {
		tail = tail[len(tail)-historyWindow:]
	}
	if len(tail) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, m := range tail {
			if m.Content == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Classify this message:\nuser: %s\n", latest)
	return b.String()
}
