// Package retrieval implements relevance search over user content: a
// per-calendar vector index plus a two-stage search (query formulation,
// then embedding match). Raw chat turns are poor, verbose search queries;
// the formulation step rewrites them into short strings first.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// Document is one indexable piece of user content.
type Document struct {
	Type       domain.DocType
	ID         string
	CalendarID domain.CalendarID
	Text       string
}

// Hit is a matched document with its similarity score.
type Hit struct {
	Document
	Score float32
}

type indexed struct {
	doc Document
	vec []float32
}

// Index is an in-memory vector index partitioned by calendar id. The CRUD
// layer owns feeding it via Upsert/Remove; the agent only reads.
type Index struct {
	embedder domain.Embedder

	mu   sync.RWMutex
	docs map[domain.CalendarID][]*indexed
}

// NewIndex creates an empty index backed by the given embedder.
func NewIndex(embedder domain.Embedder) *Index {
	return &Index{
		embedder: embedder,
		docs:     make(map[domain.CalendarID][]*indexed),
	}
}

// Upsert embeds a document and stores it, replacing any previous entry
// with the same (type, id) in the same calendar.
func (ix *Index) Upsert(ctx context.Context, doc Document) error {
	if doc.Text == "" {
		return &domain.ValidationError{Field: "text", Reason: "is required"}
	}

	vec, err := ix.embedder.EmbedDocument(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed document %s/%s: %w", doc.Type, doc.ID, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := ix.docs[doc.CalendarID]
	for i, e := range entries {
		if e.doc.Type == doc.Type && e.doc.ID == doc.ID {
			entries[i] = &indexed{doc: doc, vec: vec}
			return nil
		}
	}
	ix.docs[doc.CalendarID] = append(entries, &indexed{doc: doc, vec: vec})
	return nil
}

// Remove drops a document from the index. No-op if absent.
func (ix *Index) Remove(calendarID domain.CalendarID, typ domain.DocType, id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := ix.docs[calendarID]
	for i, e := range entries {
		if e.doc.Type == typ && e.doc.ID == id {
			ix.docs[calendarID] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Search returns the top-k documents of the given types in one calendar,
// ranked by cosine similarity to the query vector. An empty types filter
// matches all types.
func (ix *Index) Search(calendarID domain.CalendarID, types []domain.DocType, queryVec []float32, k int) []Hit {
	allowed := make(map[domain.DocType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var hits []Hit
	for _, e := range ix.docs[calendarID] {
		if len(allowed) > 0 && !allowed[e.doc.Type] {
			continue
		}
		hits = append(hits, Hit{Document: e.doc, Score: CosineSimilarity(queryVec, e.vec)})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}
