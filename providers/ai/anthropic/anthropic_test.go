package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperia-ai/chatglue/providers/ai"
)

// TestNew verifies that New() returns a non-nil provider with the default base URL.
func TestNew(t *testing.T) {
	t.Setenv("ANTHROPIC_API_BASE_URL", "")

	provider := New()
	if provider == nil {
		t.Fatal("New() returned nil")
	}
	if provider.baseURL != defaultBaseURL {
		t.Errorf("expected baseURL %q, got %q", defaultBaseURL, provider.baseURL)
	}
}

// TestWithAPIKey verifies that WithAPIKey sets the apiKey field and chains correctly.
func TestWithAPIKey(t *testing.T) {
	provider := New().WithAPIKey("test-api-key").(*AnthropicProvider)
	if provider.apiKey != "test-api-key" {
		t.Errorf("expected apiKey %q, got %q", "test-api-key", provider.apiKey)
	}
}

// TestWithBaseURL verifies that WithBaseURL sets the baseURL field.
func TestWithBaseURL(t *testing.T) {
	provider := New().WithBaseURL("https://custom.anthropic.com").(*AnthropicProvider)
	if provider.baseURL != "https://custom.anthropic.com" {
		t.Errorf("expected baseURL %q, got %q", "https://custom.anthropic.com", provider.baseURL)
	}
}

// TestWithHttpClient verifies that WithHttpClient sets a custom HTTP client.
func TestWithHttpClient(t *testing.T) {
	customClient := &http.Client{}
	provider := New().WithHttpClient(customClient).(*AnthropicProvider)
	if provider.client != customClient {
		t.Error("expected custom HTTP client to be set")
	}
}

// TestValidate verifies the construction-time credential check.
func TestValidate(t *testing.T) {
	provider := New().WithBaseURL("https://example.com").(*AnthropicProvider)
	provider.apiKey = ""

	if err := provider.Validate(); err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}

	provider.apiKey = "test-key"
	if err := provider.Validate(); err != nil {
		t.Fatalf("unexpected error with API key set: %v", err)
	}
}

// TestSendMessage_Basic exercises the happy path: correct headers are sent,
// the request body includes messages, and the response is properly decoded.
func TestSendMessage_Basic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify HTTP method
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		// Anthropic authenticates via x-api-key, not Bearer token
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key 'test-key', got %q", r.Header.Get("x-api-key"))
		}

		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("expected anthropic-version %q, got %q", anthropicVersion, r.Header.Get("anthropic-version"))
		}

		// Anthropic does not use Bearer tokens; the Authorization header must be absent.
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header: %q", r.Header.Get("Authorization"))
		}

		// Verify the request body contains at least one message.
		var reqBody anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if len(reqBody.Messages) == 0 {
			t.Error("expected at least one message in request body")
		}
		if reqBody.MaxTokens == 0 {
			t.Error("expected max_tokens to be set on every request")
		}

		// Return a well-formed mock response.
		resp := anthropicResponse{
			ID:   "msg_test123",
			Type: "message",
			Role: "assistant",
			Content: []responseContentBlock{
				{Type: "text", Text: "Hello! How can I help?"},
			},
			Model:      "claude-sonnet-4-20250514",
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 10, OutputTokens: 8},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if response.Content != "Hello! How can I help?" {
		t.Errorf("expected content %q, got %q", "Hello! How can I help?", response.Content)
	}

	if response.FinishReason != "stop" {
		t.Errorf("expected FinishReason %q, got %q", "stop", response.FinishReason)
	}

	if response.Usage == nil {
		t.Fatal("expected usage in response")
	}
	if response.Usage.PromptTokens != 10 {
		t.Errorf("expected PromptTokens 10, got %d", response.Usage.PromptTokens)
	}
	if response.Usage.CompletionTokens != 8 {
		t.Errorf("expected CompletionTokens 8, got %d", response.Usage.CompletionTokens)
	}
}

// TestSendMessage_SystemOutOfBand verifies that the system prompt travels in
// the top-level system field and never as a message row.
func TestSendMessage_SystemOutOfBand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		if reqBody.System != "You are terse." {
			t.Errorf("expected system field %q, got %q", "You are terse.", reqBody.System)
		}
		for _, msg := range reqBody.Messages {
			if msg.Role != "user" && msg.Role != "assistant" {
				t.Errorf("unexpected message role on the wire: %q", msg.Role)
			}
		}

		resp := anthropicResponse{
			ID:         "msg_sys",
			Content:    []responseContentBlock{{Type: "text", Text: "Ok."}},
			StopReason: "end_turn",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:        "claude-sonnet-4-20250514",
		SystemPrompt: "You are terse.",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
}

// TestSendMessage_WithToolCalls verifies that tool_use response blocks are
// decoded into ToolCalls with argument maps and that the finish reason is
// mapped to "tool_calls".
func TestSendMessage_WithToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			ID:   "msg_tooltest",
			Type: "message",
			Role: "assistant",
			Content: []responseContentBlock{
				{
					Type:  "tool_use",
					ID:    "toolu_1",
					Name:  "get_weather",
					Input: json.RawMessage(`{"city":"London"}`),
				},
			},
			Model:      "claude-sonnet-4-20250514",
			StopReason: "tool_use",
			Usage:      anthropicUsage{InputTokens: 20, OutputTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "What is the weather in London?"}},
	})

	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}

	toolCall := response.ToolCalls[0]
	if toolCall.ID != "toolu_1" {
		t.Errorf("expected tool call ID %q, got %q", "toolu_1", toolCall.ID)
	}
	if toolCall.Name != "get_weather" {
		t.Errorf("expected tool name %q, got %q", "get_weather", toolCall.Name)
	}
	if toolCall.Arguments["city"] != "London" {
		t.Errorf("expected city argument %q, got %v", "London", toolCall.Arguments["city"])
	}

	if response.FinishReason != "tool_calls" {
		t.Errorf("expected FinishReason %q, got %q", "tool_calls", response.FinishReason)
	}
}

// TestSendMessage_NonSuccess verifies that a non-2xx HTTP response results in
// an error containing the status code.
func TestSendMessage_NonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"Rate limit exceeded"}}`)); err != nil {
			t.Fatalf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err == nil {
		t.Fatal("expected error for 429 status, got nil")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected error to contain %q, got: %v", "429", err)
	}
}

// TestSendMessage_NoAPIKey verifies that SendMessage returns a descriptive error
// when the API key has not been configured.
func TestSendMessage_NoAPIKey(t *testing.T) {
	provider := New().WithBaseURL("https://example.com").(*AnthropicProvider)
	// Explicitly clear any key that may have been read from the environment.
	provider.apiKey = ""

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY is not set") {
		t.Errorf("expected error to mention ANTHROPIC_API_KEY, got: %v", err)
	}
}

// TestSendMessage_UnsupportedRole verifies that an invalid role in the history
// fails before any network call is made.
func TestSendMessage_UnsupportedRole(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.MessageRole("narrator"), Content: "meanwhile"}},
	})

	if err == nil {
		t.Fatal("expected error for unsupported role, got nil")
	}
	if called {
		t.Error("expected no HTTP request for an invalid conversation")
	}
}

// TestSendMessage_ModelFallback verifies that when the response omits the model
// name, the request model is echoed back so callers always see a non-empty value.
func TestSendMessage_ModelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			Content:    []responseContentBlock{{Type: "text", Text: "hi"}},
			StopReason: "end_turn",
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	provider := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*AnthropicProvider)

	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if response.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected request model fallback, got %q", response.Model)
	}
	if response.Id == "" {
		t.Error("expected a non-empty fallback response id")
	}
}
