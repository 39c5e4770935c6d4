package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence-agent/internal/adapters/llm"
	"github.com/cadencehq/cadence-agent/internal/domain"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Mismatched lengths and zero vectors score zero.
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestIndexUpsertReplacesSameDocument(t *testing.T) {
	ctx := context.Background()
	ix := NewIndex(llm.NewMockLLM())

	doc := Document{Type: domain.DocTypePost, ID: "post-1", CalendarID: "cal-1", Text: "summer sale friday"}
	require.NoError(t, ix.Upsert(ctx, doc))

	doc.Text = "winter sale monday"
	require.NoError(t, ix.Upsert(ctx, doc))

	vec, err := llm.NewMockLLM().EmbedQuery(ctx, "winter sale monday")
	require.NoError(t, err)

	hits := ix.Search("cal-1", nil, vec, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "winter sale monday", hits[0].Text)
}

func TestIndexUpsertRejectsEmptyText(t *testing.T) {
	ix := NewIndex(llm.NewMockLLM())
	err := ix.Upsert(context.Background(), Document{Type: domain.DocTypePost, ID: "p", CalendarID: "c"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)
}

func TestIndexSearchScopesByCalendarAndType(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()
	ix := NewIndex(mock)

	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "post-1", CalendarID: "cal-1", Text: "summer sale"}))
	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypeNote, ID: "note-1", CalendarID: "cal-1", Text: "summer campaign ideas"}))
	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "post-2", CalendarID: "cal-2", Text: "summer sale"}))

	vec, err := mock.EmbedQuery(ctx, "summer sale")
	require.NoError(t, err)

	hits := ix.Search("cal-1", nil, vec, 10)
	assert.Len(t, hits, 2, "other calendars never leak in")

	hits = ix.Search("cal-1", []domain.DocType{domain.DocTypeNote}, vec, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "note-1", hits[0].ID)
}

func TestIndexSearchRanksAndTruncates(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()
	ix := NewIndex(mock)

	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "exact", CalendarID: "cal-1", Text: "summer sale friday"}))
	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "partial", CalendarID: "cal-1", Text: "summer giveaway"}))
	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "unrelated", CalendarID: "cal-1", Text: "quarterly budget review"}))

	vec, err := mock.EmbedQuery(ctx, "summer sale friday")
	require.NoError(t, err)

	hits := ix.Search("cal-1", nil, vec, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "exact", hits[0].ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestIndexRemove(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()
	ix := NewIndex(mock)

	require.NoError(t, ix.Upsert(ctx, Document{Type: domain.DocTypePost, ID: "post-1", CalendarID: "cal-1", Text: "summer sale"}))
	ix.Remove("cal-1", domain.DocTypePost, "post-1")
	ix.Remove("cal-1", domain.DocTypePost, "post-1")

	vec, err := mock.EmbedQuery(ctx, "summer sale")
	require.NoError(t, err)
	assert.Empty(t, ix.Search("cal-1", nil, vec, 10))
}
