package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// MockLLM is a scriptable stand-in for the model, used by tests and the
// local dev mode. Responses can be queued per method; the Func fields
// override queues entirely when set. With nothing scripted it echoes.
//
// It also implements domain.Embedder with deterministic vectors so
// relevance search behaves consistently in tests.
type MockLLM struct {
	mu sync.Mutex

	ChatFunc func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	TextFunc func(ctx context.Context, system, prompt string) (string, error)
	JSONFunc func(ctx context.Context, prompt string, schema map[string]any, out any) error

	chatQueue []*domain.ChatResponse
	textQueue []string
	jsonQueue []string

	// Call records, for assertions.
	ChatRequests []domain.ChatRequest
	TextPrompts  []string
	JSONPrompts  []string
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// QueueChat schedules the next Chat response.
func (m *MockLLM) QueueChat(resp *domain.ChatResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatQueue = append(m.chatQueue, resp)
}

// QueueText schedules the next GenerateText response.
func (m *MockLLM) QueueText(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textQueue = append(m.textQueue, s)
}

// QueueJSON schedules the next GenerateJSON response; v is marshaled and
// later unmarshaled into the caller's out value.
func (m *MockLLM) QueueJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mock llm: bad queued json: %v", err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jsonQueue = append(m.jsonQueue, string(b))
}

func (m *MockLLM) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}

	m.mu.Lock()
	m.ChatRequests = append(m.ChatRequests, req)
	var queued *domain.ChatResponse
	if len(m.chatQueue) > 0 {
		queued = m.chatQueue[0]
		m.chatQueue = m.chatQueue[1:]
	}
	m.mu.Unlock()

	if queued != nil {
		if req.OnToken != nil && queued.Content != "" {
			req.OnToken(queued.Content)
		}
		return queued, nil
	}

	last := ""
	for _, msg := range req.Messages {
		if msg.Role == domain.RoleUser {
			last = msg.Content
		}
	}
	content := fmt.Sprintf("I hear you. You said %q — tell me more about what you want to post.", last)
	if req.OnToken != nil {
		req.OnToken(content)
	}
	return &domain.ChatResponse{Content: content}, nil
}

func (m *MockLLM) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if m.TextFunc != nil {
		return m.TextFunc(ctx, system, prompt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextPrompts = append(m.TextPrompts, prompt)
	if len(m.textQueue) > 0 {
		s := m.textQueue[0]
		m.textQueue = m.textQueue[1:]
		return s, nil
	}
	return "Fresh ideas, zero hassle. Come see what we made for you.", nil
}

// defaultJSON satisfies every structured caller at once: the guardrail
// reads isAllowed, query formulation reads queries, grading reads the
// score fields.
const defaultJSON = `{"isAllowed":true,"queries":[],"overall":100,"perRule":[],"suggestions":[]}`

func (m *MockLLM) GenerateJSON(ctx context.Context, prompt string, schema map[string]any, out any) error {
	if m.JSONFunc != nil {
		return m.JSONFunc(ctx, prompt, schema, out)
	}

	m.mu.Lock()
	m.JSONPrompts = append(m.JSONPrompts, prompt)
	raw := defaultJSON
	if len(m.jsonQueue) > 0 {
		raw = m.jsonQueue[0]
		m.jsonQueue = m.jsonQueue[1:]
	}
	m.mu.Unlock()

	return json.Unmarshal([]byte(raw), out)
}

// EmbedQuery implements domain.Embedder.
func (m *MockLLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

// EmbedDocument implements domain.Embedder.
func (m *MockLLM) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

// hashEmbed buckets word hashes into a small fixed vector. Identical
// words land in identical buckets, so texts sharing vocabulary score
// higher — enough structure for tests.
func hashEmbed(text string) []float32 {
	vec := make([]float32, 32)
	word := make([]byte, 0, 16)
	flush := func() {
		if len(word) == 0 {
			return
		}
		h := fnv.New32a()
		h.Write(word)
		vec[h.Sum32()%32]++
		word = word[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\t' {
			flush()
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		word = append(word, c)
	}
	flush()
	return vec
}
