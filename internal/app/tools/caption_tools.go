package tools

import (
	"context"

	"github.com/cadencehq/cadence-agent/internal/app/captioning"
)

func newGetBrandRulesTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolGetBrandRules,
		Description: "Get the brand voice rules configured for this calendar, including whether each rule is enabled.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			rules, err := deps.Repo.GetBrandRules(ctx, tc.UserID, tc.CalendarID)
			if err != nil {
				return "", err
			}
			return marshalResult(map[string]any{"rules": rules, "count": len(rules)})
		},
	}
}

func newGenerateCaptionTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolGenerateCaption,
		Description: "Generate a caption for a post that satisfies the calendar's brand voice rules. Optionally pass an existing caption to improve instead of writing from scratch.",
		Parameters: objectSchema(map[string]any{
			"topic":            stringProp("What the caption should be about."),
			"existing_caption": stringProp("An existing caption to use as the starting draft."),
		}, "topic"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			topic, err := requireString(args, "topic")
			if err != nil {
				return "", err
			}
			rules, err := deps.Repo.GetBrandRules(ctx, tc.UserID, tc.CalendarID)
			if err != nil {
				return "", err
			}

			result, err := deps.Captioner.GenerateCaption(ctx, captioning.Input{
				Topic:           topic,
				ExistingCaption: getString(args, "existing_caption"),
				Rules:           rules,
			})
			if err != nil {
				return "", err
			}
			return marshalResult(result)
		},
	}
}

func newGradeCaptionTool(deps Deps) *Tool {
	return &Tool{
		Name:        ToolGradeCaption,
		Description: "Grade a caption against the calendar's brand voice rules. Returns a 0-100 score per rule, an overall score and improvement suggestions.",
		Parameters: objectSchema(map[string]any{
			"caption": stringProp("The caption to grade."),
		}, "caption"),
		Handler: func(ctx context.Context, tc ToolContext, args map[string]any) (string, error) {
			caption, err := requireString(args, "caption")
			if err != nil {
				return "", err
			}
			rules, err := deps.Repo.GetBrandRules(ctx, tc.UserID, tc.CalendarID)
			if err != nil {
				return "", err
			}
			score, err := deps.Captioner.Grade(ctx, caption, rules)
			if err != nil {
				return "", err
			}
			return marshalResult(score)
		},
	}
}
