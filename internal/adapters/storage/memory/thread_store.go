package memory

import (
	"context"
	"sync"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// ThreadStore is the in-memory domain.ThreadStore. Not persistent; only
// suitable for development and tests.
type ThreadStore struct {
	mu       sync.RWMutex
	messages map[domain.ThreadID][]*domain.Message
}

func NewThreadStore() *ThreadStore {
	return &ThreadStore{
		messages: make(map[domain.ThreadID][]*domain.Message),
	}
}

func (s *ThreadStore) AppendMessages(ctx context.Context, threadID domain.ThreadID, msgs ...*domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[threadID] = append(s.messages[threadID], msgs...)
	return nil
}

func (s *ThreadStore) GetMessages(ctx context.Context, threadID domain.ThreadID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[threadID]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
