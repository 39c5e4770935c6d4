// Package orchestrator composes guardrail, tool resolution, context
// loading, model invocation and memory into a single turn.
//
// Turn state machine:
//
//	Idle → GuardrailCheck → Blocked (end)
//	                      → ToolResolution → ModelInvoke → TerminalResponse (end)
//	                                                     → PendingClientTool (end, awaiting external resume)
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence-agent/internal/app/agentctx"
	"github.com/cadencehq/cadence-agent/internal/app/guardrail"
	"github.com/cadencehq/cadence-agent/internal/app/stream"
	"github.com/cadencehq/cadence-agent/internal/app/tools"
	"github.com/cadencehq/cadence-agent/internal/domain"
	"github.com/cadencehq/cadence-agent/internal/observability"
)

const (
	// ModelTimeout bounds the whole model-invocation phase of a turn.
	ModelTimeout = 60 * time.Second

	// maxToolIterations caps server-tool round trips within one turn.
	maxToolIterations = 8
)

// Orchestrator runs chat turns. It holds no per-turn state; concurrent
// turns on different threads run fully in parallel. Turns on the same
// thread are expected to be sequential (caller responsibility).
type Orchestrator struct {
	llm      domain.LLMClient
	store    domain.ThreadStore
	registry *tools.Registry
	loader   *agentctx.Loader
	guard    *guardrail.Validator
	bus      *stream.Bus
	deps     tools.Deps
	now      func() time.Time
}

func New(
	llm domain.LLMClient,
	store domain.ThreadStore,
	registry *tools.Registry,
	loader *agentctx.Loader,
	guard *guardrail.Validator,
	bus *stream.Bus,
	deps tools.Deps,
) *Orchestrator {
	return &Orchestrator{
		llm:      llm,
		store:    store,
		registry: registry,
		loader:   loader,
		guard:    guard,
		bus:      bus,
		deps:     deps,
		now:      time.Now,
	}
}

// TurnInput is one chat turn request.
type TurnInput struct {
	Input      string
	ThreadID   domain.ThreadID
	Snapshot   *domain.ContextSnapshot
	CalendarID domain.CalendarID
	UserID     domain.UserID
}

// TurnOutput is the result of a turn. ToolCalls is non-empty exactly when
// the turn ended on a pending client-deferred tool call.
type TurnOutput struct {
	Response  string
	ToolCalls []domain.ToolCall
	ThreadID  domain.ThreadID
}

// RunTurn executes one turn end to end. On fatal failure (model error,
// timeout) nothing is written to memory, so a retry starts clean.
func (o *Orchestrator) RunTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	// threadId rule: reuse the caller's id to continue its memory,
	// otherwise mint a new one and hand it back.
	threadID := in.ThreadID
	if threadID == "" {
		threadID = domain.ThreadID(uuid.NewString())
	}

	log := observability.LoggerFromContext(ctx).With(
		"thread_id", threadID,
		"user_id", in.UserID,
		"calendar_id", in.CalendarID,
	)
	log.Info("turn started")

	history, err := o.store.GetMessages(ctx, threadID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	userMsg := o.newMessage(threadID, domain.RoleUser, in.Input)
	pending := []*domain.Message{userMsg}

	// GuardrailCheck. Only the latest user message is classified;
	// assistant/tool history merely provides context.
	decision := o.guard.Check(ctx, history, in.Input)
	if !decision.IsAllowed {
		refusal := o.newMessage(threadID, domain.RoleAssistant, decision.RefusalMessage)
		pending = append(pending, refusal)
		if err := o.store.AppendMessages(ctx, threadID, pending...); err != nil {
			return nil, err
		}
		log.Info("turn blocked by guardrail")
		return &TurnOutput{Response: decision.RefusalMessage, ThreadID: threadID}, nil
	}

	// ToolResolution.
	keys := agentctx.ResolveContextKeys(in.Snapshot)
	toolSet := o.registry.Resolve(ctx, keys, in.Snapshot, o.deps)
	system := baseSystemPrompt + o.loader.BuildContextBlock(ctx, agentctx.LoadInput{
		UserID:     in.UserID,
		CalendarID: in.CalendarID,
		Snapshot:   in.Snapshot,
		History:    history,
		Latest:     in.Input,
	})

	byName := make(map[string]*tools.Tool, len(toolSet))
	decls := make([]domain.ChatTool, 0, len(toolSet))
	for _, t := range toolSet {
		byName[t.Name] = t
		decls = append(decls, t.Declaration())
	}

	tctx := tools.ToolContext{
		UserID:     in.UserID,
		CalendarID: in.CalendarID,
		Snapshot:   in.Snapshot,
	}

	// ModelInvoke, raced against the timeout. The deadline covers the
	// full tool loop: it is all one model-driven phase.
	mctx, cancel := context.WithTimeout(ctx, ModelTimeout)
	defer cancel()

	msgs := make([]*domain.Message, 0, len(history)+len(pending))
	msgs = append(msgs, history...)
	msgs = append(msgs, pending...)

	var deferredCalls []domain.ToolCall

	for iter := 0; iter < maxToolIterations; iter++ {
		resp, err := o.llm.Chat(mctx, domain.ChatRequest{
			System:   system,
			Messages: msgs,
			Tools:    decls,
			OnToken: func(tok string) {
				o.bus.Publish(threadID, stream.Event{Type: stream.EventToken, Content: tok})
			},
		})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || mctx.Err() == context.DeadlineExceeded {
				log.Error("model invocation timed out")
				return nil, &domain.TimeoutError{Op: "model invocation"}
			}
			log.Error("model invocation failed", "error", err)
			return nil, &domain.UpstreamError{Op: "model invocation", Err: err}
		}

		asst := o.newMessage(threadID, domain.RoleAssistant, resp.Content)
		asst.ToolCalls = resp.ToolCalls
		pending = append(pending, asst)
		msgs = append(msgs, asst)

		if len(resp.ToolCalls) == 0 {
			break
		}

		// PendingClientTool: the first deferred call ends the turn. The
		// call is surfaced to the client, never auto-resolved here.
		deferredCalls = o.deferredOf(resp.ToolCalls, byName)
		if len(deferredCalls) > 0 {
			break
		}

		for _, call := range resp.ToolCalls {
			result := o.executeTool(mctx, threadID, byName, tctx, call, log)
			toolMsg := o.newMessage(threadID, domain.RoleTool, result)
			toolMsg.ToolCallID = call.ID
			toolMsg.ToolName = call.Name
			pending = append(pending, toolMsg)
			msgs = append(msgs, toolMsg)
		}
	}

	response := extractResponse(pending)

	if err := o.store.AppendMessages(ctx, threadID, pending...); err != nil {
		return nil, err
	}

	log.Info("turn completed", "deferred_calls", len(deferredCalls))
	return &TurnOutput{
		Response:  response,
		ToolCalls: deferredCalls,
		ThreadID:  threadID,
	}, nil
}

// executeTool runs one server tool call. Tool failures — including
// authorization failures — become tool-result strings fed back to the
// model, never a crash.
func (o *Orchestrator) executeTool(
	ctx context.Context,
	threadID domain.ThreadID,
	byName map[string]*tools.Tool,
	tctx tools.ToolContext,
	call domain.ToolCall,
	log *slog.Logger,
) string {
	t, ok := byName[call.Name]
	if !ok {
		log.Warn("model called unresolved tool", "tool", call.Name)
		return `{"error":"unknown tool: ` + call.Name + `"}`
	}

	o.bus.Publish(threadID, stream.Event{Type: stream.EventStatusStart, ToolName: call.Name})
	start := o.now()
	result, err := t.Handler(ctx, tctx, call.Args)
	o.bus.Publish(threadID, stream.Event{Type: stream.EventStatusEnd, ToolName: call.Name})

	if err != nil {
		log.Warn("tool failed", "tool", call.Name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		if errors.Is(err, domain.ErrForbidden) {
			return `{"error":"you are not authorized to access this calendar's data"}`
		}
		return `{"error":` + jsonQuote(err.Error()) + `}`
	}

	log.Info("tool executed", "tool", call.Name, "elapsed_ms", time.Since(start).Milliseconds())
	return result
}

func (o *Orchestrator) deferredOf(calls []domain.ToolCall, byName map[string]*tools.Tool) []domain.ToolCall {
	var out []domain.ToolCall
	for _, c := range calls {
		if t, ok := byName[c.Name]; ok && t.ReturnDirect {
			out = append(out, c)
		}
	}
	return out
}

// extractResponse scans messages in reverse for the most recent assistant
// message. No assistant message at all means an empty response, not an
// error.
func extractResponse(msgs []*domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i].Content
		}
	}
	return ""
}

func (o *Orchestrator) newMessage(threadID domain.ThreadID, role domain.Role, content string) *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		ThreadID:  threadID,
		Role:      role,
		Content:   content,
		CreatedAt: o.now(),
	}
}

func jsonQuote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `"tool error"`
	}
	return string(b)
}

func validate(in TurnInput) error {
	switch {
	case in.Input == "":
		return &domain.ValidationError{Field: "input", Reason: "is required"}
	case in.UserID == "":
		return &domain.ValidationError{Field: "userId", Reason: "is required"}
	case in.CalendarID == "":
		return &domain.ValidationError{Field: "calendarId", Reason: "is required"}
	}
	return nil
}
