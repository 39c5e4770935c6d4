package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cadencehq/cadence-agent/internal/app/orchestrator"
	"github.com/cadencehq/cadence-agent/internal/app/stream"
	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

// apologyMessage is what the user sees when a turn fails fatally.
const apologyMessage = "Sorry, something went wrong while handling that. Please try again."

type Server struct {
	orch  *orchestrator.Orchestrator
	store domain.ThreadStore
	bus   *stream.Bus
}

func NewServer(orch *orchestrator.Orchestrator, store domain.ThreadStore, bus *stream.Bus) http.Handler {
	s := &Server{orch: orch, store: store, bus: bus}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /chat        → POST: run one turn
	// /chat/stream → GET: SSE event stream for a thread
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/chat/stream", s.handleChatStream)

	// /threads/{id} → GET: persisted message timeline
	mux.HandleFunc("/threads/", s.handleThreadWithID)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	Input         string                  `json:"input"`
	ThreadID      string                  `json:"threadId,omitempty"`
	ClientContext *domain.ContextSnapshot `json:"clientContext,omitempty"`
	CalendarID    string                  `json:"calendarId"`
	UserID        string                  `json:"userId"`
}

type chatResponse struct {
	Response  string            `json:"response"`
	ToolCalls []domain.ToolCall `json:"toolCalls,omitempty"`
	ThreadID  string            `json:"threadId"`
}

type messageResponse struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	ToolCalls []domain.ToolCall `json:"toolCalls,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type threadResponse struct {
	ThreadID string            `json:"threadId"`
	Messages []messageResponse `json:"messages"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.orch.RunTurn(r.Context(), orchestrator.TurnInput{
		Input:      strings.TrimSpace(req.Input),
		ThreadID:   domain.ThreadID(req.ThreadID),
		Snapshot:   req.ClientContext,
		CalendarID: domain.CalendarID(req.CalendarID),
		UserID:     domain.UserID(req.UserID),
	})
	if err != nil {
		writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  out.Response,
		ToolCalls: out.ToolCalls,
		ThreadID:  string(out.ThreadID),
	})
}

// handleChatStream serves the out-of-band event stream for one thread as
// SSE. A disconnecting subscriber unsubscribes cleanly; the turn it was
// watching continues to completion regardless.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		badRequest(w, "thread_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := s.bus.Subscribe(domain.ThreadID(threadID), 64)
	defer s.bus.Unsubscribe(ch)

	writeSSE(w, stream.Event{Type: stream.EventConnected, Timestamp: time.Now()})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Server) handleThreadWithID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/threads/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	msgs, err := s.store.GetMessages(r.Context(), domain.ThreadID(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	resp := threadResponse{ThreadID: id, Messages: make([]messageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:        string(m.ID),
			Role:      string(m.Role),
			Content:   m.Content,
			ToolCalls: m.ToolCalls,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		badRequest(w, vErr.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		// Timeout and upstream failures surface as a generic apology;
		// the turn's partial state was discarded so a retry starts clean.
		log.Error("turn failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": apologyMessage})
	}
}

func writeSSE(w http.ResponseWriter, ev stream.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
