package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// ThreadStore is a Firestore-backed domain.ThreadStore.
type ThreadStore struct {
	client *firestore.Client
}

// NewThreadStore creates a Firestore thread store for the given project.
func NewThreadStore(ctx context.Context, projectID string) (*ThreadStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &ThreadStore{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *ThreadStore) threadsCol() *firestore.CollectionRef {
	return s.client.Collection("threads")
}

func (s *ThreadStore) threadDoc(id domain.ThreadID) *firestore.DocumentRef {
	return s.threadsCol().Doc(string(id))
}

func (s *ThreadStore) messagesCol(threadID domain.ThreadID) *firestore.CollectionRef {
	return s.threadDoc(threadID).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type threadDoc struct {
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	ThreadID   string    `firestore:"thread_id"`
	Seq        int       `firestore:"seq"`
	Role       string    `firestore:"role"`
	Content    string    `firestore:"content"`
	ToolCalls  string    `firestore:"tool_calls"`
	ToolCallID string    `firestore:"tool_call_id"`
	ToolName   string    `firestore:"tool_name"`
	CreatedAt  time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// ThreadStore implementation
// ─────────────────────────────────────────

func (s *ThreadStore) AppendMessages(ctx context.Context, threadID domain.ThreadID, msgs ...*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	now := msgs[len(msgs)-1].CreatedAt
	if _, err := s.threadDoc(threadID).Set(ctx, map[string]interface{}{
		"updated_at": now,
	}, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore upsert thread: %w", mapErr(err))
	}

	seq, err := s.nextSeq(ctx, threadID)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		var toolCalls string
		if len(m.ToolCalls) > 0 {
			b, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return fmt.Errorf("marshal tool calls: %w", err)
			}
			toolCalls = string(b)
		}

		doc := messageDoc{
			ThreadID:   string(threadID),
			Seq:        seq,
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCalls:  toolCalls,
			ToolCallID: m.ToolCallID,
			ToolName:   m.ToolName,
			CreatedAt:  m.CreatedAt,
		}
		seq++

		if _, err := s.messagesCol(threadID).Doc(string(m.ID)).Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore AppendMessages: %w", mapErr(err))
		}
	}
	return nil
}

func (s *ThreadStore) nextSeq(ctx context.Context, threadID domain.ThreadID) (int, error) {
	iter := s.messagesCol(threadID).OrderBy("seq", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return 1, nil
		}
		return 0, fmt.Errorf("firestore nextSeq: %w", mapErr(err))
	}

	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return 0, fmt.Errorf("decode messageDoc: %w", err)
	}
	return doc.Seq + 1, nil
}

func (s *ThreadStore) GetMessages(ctx context.Context, threadID domain.ThreadID) ([]*domain.Message, error) {
	iter := s.messagesCol(threadID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetMessages: %w", mapErr(err))
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		m := &domain.Message{
			ID:         domain.MessageID(snap.Ref.ID),
			ThreadID:   threadID,
			Role:       domain.Role(doc.Role),
			Content:    doc.Content,
			ToolCallID: doc.ToolCallID,
			ToolName:   doc.ToolName,
			CreatedAt:  doc.CreatedAt,
		}
		if doc.ToolCalls != "" {
			if err := json.Unmarshal([]byte(doc.ToolCalls), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// mapErr translates grpc status codes to the domain taxonomy.
func mapErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrNotFound
	case codes.PermissionDenied:
		return domain.ErrForbidden
	}
	return err
}
