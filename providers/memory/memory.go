// Package memory defines the conversation-history contract the orchestrator
// depends on: an ordered, append-only log of messages. The orchestrator only
// reads-then-appends; implementations must never reorder or drop entries.
//
// A memory instance is owned, for the duration of one send call tree, by
// whoever supplies it. Sharing one instance across concurrent sends requires
// the caller to serialize append order themselves.
package memory

import (
	"context"

	"github.com/hyperia-ai/chatglue/providers/ai"
)

// Provider stores conversation history.
type Provider interface {
	// AppendMessage stores a copy of message at the end of the history.
	// A nil message is a no-op.
	AppendMessage(ctx context.Context, message *ai.Message)

	// AllMessages returns the full history in append order. The returned
	// slice is independent of internal state: mutating it never affects
	// the store.
	AllMessages(ctx context.Context) ([]ai.Message, error)
}
