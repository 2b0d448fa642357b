package ai

import (
	"errors"
	"iter"
	"testing"
)

// makeStream is a test helper that builds a ChatStream from a hand-crafted event
// slice. If midErr is non-nil and errAtIndex is a valid index, the error is
// injected after that event instead of a normal yield.
func makeStream(events []StreamEvent, midErr error, errAtIndex int) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		for i, event := range events {
			if midErr != nil && i == errAtIndex {
				yield(event, midErr)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
	return NewChatStream(iter.Seq2[StreamEvent, error](iteratorFunc))
}

// TestCollect_ContentAccumulation verifies that content deltas concatenate in
// arrival order and usage and finish reason are captured.
func TestCollect_ContentAccumulation(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "He"},
		{Type: StreamEventContent, Content: "llo"},
		{Type: StreamEventUsage, Usage: &Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5}},
		{Type: StreamEventDone, FinishReason: "stop"},
	}, nil, 0)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "Hello" {
		t.Errorf("content: got %q, want %q", response.Content, "Hello")
	}
	if response.Usage == nil || response.Usage.TotalTokens != 5 {
		t.Errorf("usage: got %+v", response.Usage)
	}
	if response.FinishReason != "stop" {
		t.Errorf("finish reason: got %q, want stop", response.FinishReason)
	}
}

// TestCollectFunc_CallbackOrder verifies that the onContent callback fires for
// every text delta, in order, and that the accumulated response still matches.
func TestCollectFunc_CallbackOrder(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "He"},
		{Type: StreamEventContent, Content: "llo"},
		{Type: StreamEventDone, FinishReason: "stop"},
	}, nil, 0)

	var chunks []string
	response, err := stream.CollectFunc(func(delta string) {
		chunks = append(chunks, delta)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) != 2 || chunks[0] != "He" || chunks[1] != "llo" {
		t.Errorf("chunks: got %v, want [He llo]", chunks)
	}
	if response.Content != "Hello" {
		t.Errorf("content: got %q, want Hello", response.Content)
	}
}

// TestCollect_ToolCallAssembly verifies that fragmented tool call deltas are
// assembled per index: header chunk carries ID and Name, later chunks append
// argument JSON fragments, and finalization decodes them into a map.
func TestCollect_ToolCallAssembly(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "toolu_1", Name: "get_weather"}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `{"city":`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `"Oslo"}`}},
		{Type: StreamEventDone, FinishReason: "tool_calls"},
	}, nil, 0)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "toolu_1" || call.Name != "get_weather" {
		t.Errorf("call identity: got %+v", call)
	}
	if call.Arguments["city"] != "Oslo" {
		t.Errorf("arguments: got %v", call.Arguments)
	}
}

// TestCollect_MalformedToolArguments verifies that an argument fragment the
// repair parser cannot recover yields a call with empty arguments rather than
// dropping the call.
func TestCollect_MalformedToolArguments(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "toolu_1", Name: "broken"}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: "not json at all %%%"}},
		{Type: StreamEventDone, FinishReason: "tool_calls"},
	}, nil, 0)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected the call to be kept, got %d calls", len(response.ToolCalls))
	}
	if response.ToolCalls[0].Name != "broken" {
		t.Errorf("call name: got %q", response.ToolCalls[0].Name)
	}
}

// TestCollect_NegativeToolCallIndex verifies that a delta carrying a negative
// index is dropped instead of indexing outside the builder list. Such deltas
// come from malformed provider streams, so they must not be able to panic the
// accumulator.
func TestCollect_NegativeToolCallIndex(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: -1, Arguments: `{"city":"Oslo"}`}},
		{Type: StreamEventContent, Content: "still fine"},
		{Type: StreamEventDone, FinishReason: "stop"},
	}, nil, 0)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 0 {
		t.Errorf("expected the orphan delta to be dropped, got %+v", response.ToolCalls)
	}
	if response.Content != "still fine" {
		t.Errorf("content: got %q", response.Content)
	}
}

// TestCollect_MidStreamError verifies that a mid-stream error terminates
// collection and returns the partial response alongside the error.
func TestCollect_MidStreamError(t *testing.T) {
	streamErr := errors.New("connection reset")
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "partial"},
		{}, // error injected here
	}, streamErr, 1)

	response, err := stream.Collect()
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected the injected error, got %v", err)
	}
	if response == nil || response.Content != "partial" {
		t.Errorf("expected partial content to survive, got %+v", response)
	}
}

// TestCollect_MultipleToolCalls verifies index-based assembly when two tool
// calls are interleaved in a single turn.
func TestCollect_MultipleToolCalls(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "toolu_1", Name: "get_weather"}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, ID: "toolu_2", Name: "get_time"}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `{"city":"Oslo"}`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, Arguments: `{"zone":"CET"}`}},
		{Type: StreamEventDone, FinishReason: "tool_calls"},
	}, nil, 0)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(response.ToolCalls))
	}
	if response.ToolCalls[0].Name != "get_weather" || response.ToolCalls[1].Name != "get_time" {
		t.Errorf("call order: got %+v", response.ToolCalls)
	}
	if response.ToolCalls[1].Arguments["zone"] != "CET" {
		t.Errorf("second call arguments: got %v", response.ToolCalls[1].Arguments)
	}
}
