// Package captioning implements the reflect-refine loop: generate a
// caption, grade it against the calendar's brand rules, and rewrite it
// once if the grade is low. The single refinement pass is a hard cap that
// bounds latency and cost.
package captioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

// RefineThreshold is the overall score below which the draft gets one
// refinement pass.
const RefineThreshold = 85

// perfectScore is the nominal grade returned when no rules are enabled
// and grading is skipped.
const perfectScore = 100

const generateSystem = `You write social media captions for a content-scheduling product.
Write exactly one caption, ready to publish. No preamble, no quotes, no alternatives.`

var gradeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"overall": map[string]any{
			"type":        "integer",
			"description": "overall brand-fit score, 0-100",
		},
		"perRule": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ruleId":   map[string]any{"type": "string"},
					"score":    map[string]any{"type": "integer"},
					"feedback": map[string]any{"type": "string"},
				},
				"required": []string{"ruleId", "score", "feedback"},
			},
		},
		"suggestions": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "2-3 concrete improvement suggestions",
		},
	},
	"required": []string{"overall", "perRule", "suggestions"},
}

// Generator produces and grades captions.
type Generator struct {
	llm domain.LLMClient
}

func NewGenerator(llm domain.LLMClient) *Generator {
	return &Generator{llm: llm}
}

// Input describes one caption request. ExistingCaption, when set, becomes
// the initial draft instead of generating one.
type Input struct {
	Topic           string
	ExistingCaption string
	Rules           []*domain.BrandRule
}

// GenerateCaption runs the bounded reflect-refine loop and returns the
// best-scoring draft. With zero enabled rules grading is skipped entirely
// and the initial draft comes back with a perfect nominal score.
func (g *Generator) GenerateCaption(ctx context.Context, in Input) (*domain.GeneratedCaption, error) {
	log := observability.LoggerFromContext(ctx)
	enabled := enabledRules(in.Rules)

	draft := strings.TrimSpace(in.ExistingCaption)
	if draft == "" {
		var err error
		draft, err = g.draftCaption(ctx, in.Topic, enabled)
		if err != nil {
			return nil, fmt.Errorf("generate draft: %w", err)
		}
	}

	if len(enabled) == 0 {
		return &domain.GeneratedCaption{
			Caption: draft,
			Score:   domain.BrandScore{Overall: perfectScore},
		}, nil
	}

	score, err := g.Grade(ctx, draft, enabled)
	if err != nil {
		return nil, fmt.Errorf("grade draft: %w", err)
	}
	if score.Overall >= RefineThreshold {
		return &domain.GeneratedCaption{Caption: draft, Score: score}, nil
	}

	log.Info("caption below threshold, refining", "overall", score.Overall)

	refined, err := g.refineCaption(ctx, draft, score, enabled)
	if err != nil {
		// The initial draft is still usable; refinement failure is not
		// fatal to the request.
		log.Warn("refinement failed, keeping initial draft", "error", err)
		return &domain.GeneratedCaption{Caption: draft, Score: score}, nil
	}

	refinedScore, err := g.Grade(ctx, refined, enabled)
	if err != nil {
		log.Warn("refined grade failed, keeping initial draft", "error", err)
		return &domain.GeneratedCaption{Caption: draft, Score: score}, nil
	}

	// Ties favor the refined draft: it incorporates explicit feedback.
	if refinedScore.Overall >= score.Overall {
		return &domain.GeneratedCaption{Caption: refined, Score: refinedScore, Refined: true}, nil
	}
	return &domain.GeneratedCaption{Caption: draft, Score: score}, nil
}

// Grade scores a caption against the given rules.
func (g *Generator) Grade(ctx context.Context, caption string, rules []*domain.BrandRule) (domain.BrandScore, error) {
	enabled := enabledRules(rules)
	if len(enabled) == 0 {
		return domain.BrandScore{Overall: perfectScore}, nil
	}

	var b strings.Builder
	b.WriteString("Grade this social media caption against each brand voice rule (0-100 per rule), ")
	b.WriteString("give an overall score, and 2-3 concrete suggestions.\n\nRules:\n")
	for _, r := range enabled {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", r.ID, r.Title, r.Description)
	}
	fmt.Fprintf(&b, "\nCaption:\n%s\n", caption)

	var out struct {
		Overall int `json:"overall"`
		PerRule []struct {
			RuleID   string `json:"ruleId"`
			Score    int    `json:"score"`
			Feedback string `json:"feedback"`
		} `json:"perRule"`
		Suggestions []string `json:"suggestions"`
	}
	if err := g.llm.GenerateJSON(ctx, b.String(), gradeSchema, &out); err != nil {
		return domain.BrandScore{}, &domain.UpstreamError{Op: "grade caption", Err: err}
	}

	score := domain.BrandScore{Overall: clamp(out.Overall), Suggestions: out.Suggestions}
	for _, r := range out.PerRule {
		score.PerRule = append(score.PerRule, domain.RuleScore{
			RuleID:   domain.RuleID(r.RuleID),
			Score:    clamp(r.Score),
			Feedback: r.Feedback,
		})
	}
	return score, nil
}

func (g *Generator) draftCaption(ctx context.Context, topic string, rules []*domain.BrandRule) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a caption about: %s\n", topic)
	if len(rules) > 0 {
		b.WriteString("\nFollow these brand voice rules:\n")
		for _, r := range rules {
			fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Description)
		}
	}

	caption, err := g.llm.GenerateText(ctx, generateSystem, b.String())
	if err != nil {
		return "", &domain.UpstreamError{Op: "draft caption", Err: err}
	}
	return strings.TrimSpace(caption), nil
}

func (g *Generator) refineCaption(ctx context.Context, draft string, score domain.BrandScore, rules []*domain.BrandRule) (string, error) {
	byID := make(map[domain.RuleID]*domain.BrandRule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This caption scored %d/100 against the brand voice rules. Rewrite it to fix the feedback below while keeping the message.\n\n", score.Overall)
	fmt.Fprintf(&b, "Caption:\n%s\n\nFeedback:\n", draft)
	for _, rs := range score.PerRule {
		if rs.Score >= RefineThreshold {
			continue
		}
		title := string(rs.RuleID)
		if r, ok := byID[rs.RuleID]; ok {
			title = r.Title
		}
		fmt.Fprintf(&b, "- %s (%d/100): %s\n", title, rs.Score, rs.Feedback)
	}
	for _, s := range score.Suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	caption, err := g.llm.GenerateText(ctx, generateSystem, b.String())
	if err != nil {
		return "", &domain.UpstreamError{Op: "refine caption", Err: err}
	}
	return strings.TrimSpace(caption), nil
}

func enabledRules(rules []*domain.BrandRule) []*domain.BrandRule {
	var out []*domain.BrandRule
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
