// Package stream provides the per-thread publish/subscribe channel that
// carries status and token events out-of-band while the agent runs.
// Events flow from the orchestrator to subscribers (the SSE handler). The
// bus is nil-safe: calling Publish on a nil *Bus is a no-op, so the
// orchestrator does not need guard checks. Events are in-process only and
// do not survive a restart.
package stream

import (
	"sync"
	"time"

	"github.com/cadencehq/cadence-agent/internal/domain"
)

// EventType describes the kind of stream event.
type EventType string

const (
	// EventConnected is sent once when a subscriber attaches.
	EventConnected EventType = "connected"
	// EventToken carries one content token from the model.
	EventToken EventType = "token"
	// EventStatusStart signals the start of a tool execution.
	EventStatusStart EventType = "status_start"
	// EventStatusEnd signals the end of a tool execution.
	EventStatusEnd EventType = "status_end"
)

// Event is a single transient stream event. Never persisted.
type Event struct {
	Type      EventType `json:"type"`
	Content   string    `json:"content,omitempty"`
	ToolName  string    `json:"toolName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus is a non-blocking broadcast bus keyed by thread id. Subscribers
// receive events on buffered channels; slow subscribers miss events
// rather than blocking the publishing turn.
type Bus struct {
	mu   sync.RWMutex
	subs map[domain.ThreadID]map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe back
	// to the bidirectional channel stored in subs, so Unsubscribe can
	// accept <-chan Event (the caller's view).
	recvToSend map[<-chan Event]chan Event
	recvThread map[<-chan Event]domain.ThreadID
}

// New creates an event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[domain.ThreadID]map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
		recvThread: make(map[<-chan Event]domain.ThreadID),
	}
}

// Publish sends an event to all subscribers of the given thread.
// Non-blocking: if a subscriber's channel is full, the event is dropped
// for that subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(threadID domain.ThreadID, e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[threadID] {
		select {
		case ch <- e:
		default:
			// Subscriber is full — drop the event rather than block.
		}
	}
}

// Subscribe returns a channel that receives events published for the
// given thread. The caller must eventually call Unsubscribe to avoid
// resource leaks. bufSize controls the channel buffer; 64 is a reasonable
// default for SSE consumers.
func (b *Bus) Subscribe(threadID domain.ThreadID, bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[threadID] == nil {
		b.subs[threadID] = make(map[chan Event]struct{})
	}
	b.subs[threadID][ch] = struct{}{}
	b.recvToSend[ch] = ch
	b.recvThread[ch] = threadID
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to call
// with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	threadID := b.recvThread[ch]
	delete(b.subs[threadID], sendCh)
	if len(b.subs[threadID]) == 0 {
		delete(b.subs, threadID)
	}
	delete(b.recvToSend, ch)
	delete(b.recvThread, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers for a thread.
func (b *Bus) SubscriberCount(threadID domain.ThreadID) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[threadID])
}
