package ai

import (
	"iter"
	"strings"

	"github.com/hyperia-ai/chatglue/core/parse"
)

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventToolCall indicates an incremental tool call delta (name or arguments chunk).
	StreamEventToolCall StreamEventType = "tool_call"
	// StreamEventUsage carries token usage metadata (typically the final event).
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the stream has finished normally.
	StreamEventDone StreamEventType = "done"
)

// ToolCallDelta represents an incremental update to a tool call being streamed.
// The Index field identifies which tool call is being updated (there may be
// multiple tool calls in one turn). ID and Name are only present on the first
// chunk for a given index; subsequent chunks carry only Arguments fragments.
type ToolCallDelta struct {
	Index     int    `json:"index"`               // Position in the tool calls list
	ID        string `json:"id,omitempty"`        // Tool call ID (first chunk only)
	Name      string `json:"name,omitempty"`      // Function name (first chunk only)
	Arguments string `json:"arguments,omitempty"` // Incremental JSON argument fragment
}

// StreamEvent represents a single delta yielded during LLM response streaming.
// Each event carries exactly one type of payload, identified by the Type field.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`       // Text delta (Type == StreamEventContent)
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`     // Tool call delta (Type == StreamEventToolCall)
	Usage        *Usage          `json:"usage,omitempty"`         // Token usage (Type == StreamEventUsage)
	FinishReason string          `json:"finish_reason,omitempty"` // Present on StreamEventDone
}

// ChatStream wraps a streaming iterator and provides automatic accumulation
// of deltas into a final ChatResponse.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// underlying provider may hold open resources (such as an HTTP response body)
// that are only released when the iterator completes or is abandoned via a
// loop break.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator.
// The iterator is expected to yield StreamEvent values (with nil error) for
// normal deltas, and may yield a non-nil error to signal a mid-stream failure.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for event, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(event.Content)
//	}
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated ChatResponse.
// Any mid-stream error terminates collection and returns the partial response
// with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	return stream.CollectFunc(nil)
}

// CollectFunc consumes the stream like Collect while invoking onContent for
// every text delta, in arrival order, before the next event is processed.
// The callback runs synchronously: slow callbacks backpressure the stream,
// which is what strict in-order delivery requires. A nil onContent is allowed.
func (stream *ChatStream) CollectFunc(onContent func(delta string)) (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var toolCallBuilders []toolCallBuilder

	for event, err := range stream.iterator {
		if err != nil {
			finalizeToolCalls(accumulated, toolCallBuilders)
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			accumulated.Content += event.Content
			if onContent != nil && event.Content != "" {
				onContent(event.Content)
			}

		case StreamEventToolCall:
			if event.ToolCall != nil {
				toolCallBuilders = accumulateToolCallDelta(toolCallBuilders, event.ToolCall)
			}

		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}

		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason
		}
	}

	finalizeToolCalls(accumulated, toolCallBuilders)
	return accumulated, nil
}

// toolCallBuilder accumulates incremental tool call deltas into a complete ToolCall.
type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// accumulateToolCallDelta merges a ToolCallDelta into the running list of tool
// call builders, growing the slice as new tool call indices appear. A delta
// with a negative index came from a malformed stream and is dropped; wire
// data must never be able to index outside the builder list.
func accumulateToolCallDelta(builders []toolCallBuilder, delta *ToolCallDelta) []toolCallBuilder {
	if delta.Index < 0 {
		return builders
	}

	for len(builders) <= delta.Index {
		builders = append(builders, toolCallBuilder{})
	}

	builder := &builders[delta.Index]

	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	if delta.Arguments != "" {
		builder.arguments.WriteString(delta.Arguments)
	}

	return builders
}

// finalizeToolCalls decodes each builder's accumulated argument JSON and
// appends the completed calls to the response. Argument fragments streamed by
// the model are occasionally malformed, so decoding goes through the
// repair-capable parser; a fragment that cannot be recovered at all yields a
// call with empty arguments rather than dropping the call.
func finalizeToolCalls(response *ChatResponse, builders []toolCallBuilder) {
	for i := range builders {
		builder := &builders[i]
		arguments, err := parse.Arguments(builder.arguments.String())
		if err != nil {
			arguments = map[string]any{}
		}
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:        builder.id,
			Name:      builder.name,
			Arguments: arguments,
		})
	}
}
