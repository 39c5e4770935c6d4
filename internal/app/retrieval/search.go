package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

const (
	// TopK is how many documents each formulated query retrieves.
	TopK = 5
	// historyWindow is how many trailing messages feed query formulation.
	historyWindow = 3
	// maxQueries caps how many formulated queries are executed per turn.
	maxQueries = 3
)

var queriesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"queries": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "1-3 short search strings capturing what the user needs",
		},
	},
	"required": []string{"queries"},
}

// Searcher runs the two-stage relevance search: rewrite the latest turn
// into short search strings, then match each against the vector index.
type Searcher struct {
	llm      domain.LLMClient
	embedder domain.Embedder
	index    *Index
}

// NewSearcher wires the query-formulation model, the embedder and the
// index together.
func NewSearcher(llm domain.LLMClient, embedder domain.Embedder, index *Index) *Searcher {
	return &Searcher{llm: llm, embedder: embedder, index: index}
}

// Search returns deduplicated hits for the latest user message, using a
// short trailing history window for context. Formulation failures fall
// back to the raw message; embedding failures skip that one query.
func (s *Searcher) Search(
	ctx context.Context,
	calendarID domain.CalendarID,
	history []*domain.Message,
	latest string,
) ([]Hit, error) {
	log := observability.LoggerFromContext(ctx).With("calendar_id", calendarID)

	queries := s.formulateQueries(ctx, history, latest)
	if len(queries) == 0 {
		queries = []string{latest}
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}

	seen := make(map[string]bool)
	var merged []Hit
	for _, q := range queries {
		vec, err := s.embedder.EmbedQuery(ctx, q)
		if err != nil {
			log.Warn("query embedding failed", "query", q, "error", err)
			continue
		}

		for _, h := range s.index.Search(calendarID, []domain.DocType{domain.DocTypePost, domain.DocTypeNote}, vec, TopK) {
			key := string(h.Type) + ":" + h.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, h)
		}
	}

	log.Info("relevance search complete", "queries", len(queries), "hits", len(merged))
	return merged, nil
}

// formulateQueries asks the model to rewrite the conversation tail into
// 1-3 short search strings. Returns nil on any failure so the caller can
// fall back to the raw message.
func (s *Searcher) formulateQueries(ctx context.Context, history []*domain.Message, latest string) []string {
	var b strings.Builder
	b.WriteString("Rewrite the user's request into 1-3 short search queries for their content library (posts and notes).\n")
	b.WriteString("Queries must be a few keywords each, not full sentences.\n\n")

	tail := history
	if len(tail) > historyWindow {
		tail = tail[len(tail)-historyWindow:]
	}
	for _, m := range tail {
		if m.Content == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s\n", latest)

	var out struct {
		Queries []string `json:"queries"`
	}
	if err := s.llm.GenerateJSON(ctx, b.String(), queriesSchema, &out); err != nil {
		observability.LoggerFromContext(ctx).Warn("query formulation failed", "error", err)
		return nil
	}

	var queries []string
	for _, q := range out.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}
