package captioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence-agent/internal/adapters/llm"
	"github.com/cadencehq/cadence-agent/internal/domain"
)

func friendlyRule() *domain.BrandRule {
	return &domain.BrandRule{
		ID:          "rule-tone",
		Title:       "Friendly tone",
		Description: "Write like a helpful friend.",
		Enabled:     true,
	}
}

func TestGenerateCaptionSkipsGradingWithoutRules(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Sunny days ahead.")

	gen := NewGenerator(mock)
	got, err := gen.GenerateCaption(context.Background(), Input{Topic: "summer sale"})
	require.NoError(t, err)

	assert.Equal(t, "Sunny days ahead.", got.Caption)
	assert.Equal(t, perfectScore, got.Score.Overall)
	assert.False(t, got.Refined)
	assert.Empty(t, mock.JSONPrompts, "no grading calls expected")
}

func TestGenerateCaptionDisabledRulesCountAsNone(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Draft.")

	rule := friendlyRule()
	rule.Enabled = false

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "launch",
		Rules: []*domain.BrandRule{rule},
	})
	require.NoError(t, err)
	assert.Equal(t, perfectScore, got.Score.Overall)
	assert.Empty(t, mock.JSONPrompts)
}

func TestGenerateCaptionAcceptsHighScoringDraft(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Great draft.")
	mock.QueueJSON(map[string]any{"overall": 92, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "summer sale",
		Rules: []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)

	assert.Equal(t, "Great draft.", got.Caption)
	assert.Equal(t, 92, got.Score.Overall)
	assert.False(t, got.Refined)
	assert.Len(t, mock.TextPrompts, 1, "only the draft call")
	assert.Len(t, mock.JSONPrompts, 1, "only one grade call")
}

func TestGenerateCaptionRefinesOnceWhenBelowThreshold(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Weak draft.")
	mock.QueueJSON(map[string]any{
		"overall": 40,
		"perRule": []any{
			map[string]any{"ruleId": "rule-tone", "score": 40, "feedback": "too stiff"},
		},
		"suggestions": []any{"loosen up"},
	})
	mock.QueueText("Warmer rewrite.")
	mock.QueueJSON(map[string]any{"overall": 88, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "summer sale",
		Rules: []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)

	assert.Equal(t, "Warmer rewrite.", got.Caption)
	assert.Equal(t, 88, got.Score.Overall)
	assert.True(t, got.Refined)
	assert.Len(t, mock.TextPrompts, 2, "draft plus exactly one refinement")
	assert.Len(t, mock.JSONPrompts, 2, "two grade calls")
}

func TestGenerateCaptionKeepsDraftWhenRefinementScoresLower(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Original draft.")
	mock.QueueJSON(map[string]any{"overall": 70, "perRule": []any{}, "suggestions": []any{}})
	mock.QueueText("Worse rewrite.")
	mock.QueueJSON(map[string]any{"overall": 55, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "summer sale",
		Rules: []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)

	assert.Equal(t, "Original draft.", got.Caption)
	assert.Equal(t, 70, got.Score.Overall)
	assert.False(t, got.Refined)
}

func TestGenerateCaptionTieFavorsRefined(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueText("Original draft.")
	mock.QueueJSON(map[string]any{"overall": 60, "perRule": []any{}, "suggestions": []any{}})
	mock.QueueText("Rewrite.")
	mock.QueueJSON(map[string]any{"overall": 60, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "summer sale",
		Rules: []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rewrite.", got.Caption)
	assert.True(t, got.Refined)
}

func TestGenerateCaptionRefinementFailureKeepsDraft(t *testing.T) {
	mock := llm.NewMockLLM()
	calls := 0
	mock.TextFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "Weak draft.", nil
		}
		return "", errors.New("model unavailable")
	}
	mock.QueueJSON(map[string]any{"overall": 30, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		Topic: "summer sale",
		Rules: []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Weak draft.", got.Caption)
	assert.Equal(t, 30, got.Score.Overall)
	assert.False(t, got.Refined)
}

func TestGenerateCaptionUsesExistingCaptionAsDraft(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueJSON(map[string]any{"overall": 95, "perRule": []any{}, "suggestions": []any{}})

	got, err := NewGenerator(mock).GenerateCaption(context.Background(), Input{
		ExistingCaption: "  Keep this one.  ",
		Rules:           []*domain.BrandRule{friendlyRule()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep this one.", got.Caption)
	assert.Empty(t, mock.TextPrompts, "no draft call when a caption is supplied")
}

func TestGradeClampsScores(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.QueueJSON(map[string]any{
		"overall": 130,
		"perRule": []any{
			map[string]any{"ruleId": "rule-tone", "score": -5, "feedback": "n/a"},
		},
		"suggestions": []any{},
	})

	score, err := NewGenerator(mock).Grade(context.Background(), "caption", []*domain.BrandRule{friendlyRule()})
	require.NoError(t, err)
	assert.Equal(t, 100, score.Overall)
	require.Len(t, score.PerRule, 1)
	assert.Equal(t, 0, score.PerRule[0].Score)
}

func TestGradeWithoutEnabledRules(t *testing.T) {
	mock := llm.NewMockLLM()
	score, err := NewGenerator(mock).Grade(context.Background(), "caption", nil)
	require.NoError(t, err)
	assert.Equal(t, perfectScore, score.Overall)
	assert.Empty(t, mock.JSONPrompts)
}
