package inmemory

import (
	"context"
	"sync"

	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/memory"
	"github.com/hyperia-ai/chatglue/providers/observability"
)

// ArrayMemory is a simple, concurrency-safe in-memory message store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
type ArrayMemory struct {
	mu       sync.RWMutex
	messages []ai.Message
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		messages: []ai.Message{},
	}
}

// Ensure ArrayMemory implements memory.Provider at compile time.
var _ memory.Provider = (*ArrayMemory)(nil)

// AppendMessage stores a copy of message at the end of the history.
// It is a no-op when message is nil. When an observer is present in ctx,
// the append is traced with the message role and content length.
func (m *ArrayMemory) AppendMessage(ctx context.Context, message *ai.Message) {
	if message == nil {
		return
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "memory append",
			observability.String("memory.message.role", string(message.Role)),
			observability.Int("memory.message.length", len(message.Content)),
		)
	}

	m.mu.Lock()
	m.messages = append(m.messages, *message)
	m.mu.Unlock()
}

// AllMessages returns a copy of all messages to avoid external mutation of
// internal state. The returned error is always nil for the in-memory store.
func (m *ArrayMemory) AllMessages(_ context.Context) ([]ai.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.messages) == 0 {
		return []ai.Message{}, nil
	}
	out := make([]ai.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

// Count returns the number of messages stored.
func (m *ArrayMemory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// LastMessage returns a copy of the most recent message, or nil when empty.
func (m *ArrayMemory) LastMessage() *ai.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.messages) == 0 {
		return nil
	}
	msg := m.messages[len(m.messages)-1]
	return &msg
}

// ClearMessages removes all messages while retaining the underlying slice
// capacity, so subsequent appends do not immediately trigger a reallocation.
func (m *ArrayMemory) ClearMessages() {
	m.mu.Lock()
	m.messages = m.messages[:0]
	m.mu.Unlock()
}
