package ai

import (
	"encoding/json"
	"strings"

	"github.com/hyperia-ai/chatglue/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a single request to a chat provider.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation history, system rows excluded
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Out-of-band system directive
	Tools            []ToolDescription `json:"tools,omitempty"`             // Tool definitions advertised to the model
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
	ToolChoice       *ToolChoice       `json:"tool_choice,omitempty"`       // Optional constraint on which tool the model may call
}

// ToolChoice constrains tool selection for a single request. A nil ToolChoice
// leaves the provider on its default behavior (typically "auto").
type ToolChoice struct {
	// ToolChoiceForced holds either a reserved mode ("auto", "any",
	// "required") or the name of a specific tool the model must call.
	ToolChoiceForced string `json:"tool_choice_forced,omitempty"`

	// AtLeastOneRequired asks the provider to call at least one advertised
	// tool. Ignored when ToolChoiceForced is set.
	AtLeastOneRequired bool `json:"at_least_one_required,omitempty"`
}

// ToolDescription advertises a callable tool to the provider.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single turn in a conversation.
//
// Invariants: a RoleFunction message always carries ToolCallID referencing the
// call it answers; a RoleModel message's ToolCalls, when present, is non-empty.
// Messages are created once and never mutated after being appended to memory.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// ContentParts holds multi-part content (text, image references).
	// When set, it takes precedence over Content for user messages.
	ContentParts []ContentPart `json:"content_parts,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=model requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=function, links to the answered call
	Name       string     `json:"name,omitempty"`         // For role=function, name of the tool that produced this reply
}

// ContentPart is a tagged unit of message content.
type ContentPart struct {
	Type  ContentType     `json:"type"`
	Text  string          `json:"text,omitempty"`
	Image *ImageReference `json:"image,omitempty"`
}

// ImageReference points at image content either by URI or as inline base64 data.
type ImageReference struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"` // Base64-encoded payload
}

// ContentType discriminates ContentPart values.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Optional max tokens for the response
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..1]. Higher => more random.
	TopP        float32 `json:"top_p,omitempty"`       // Nucleus sampling [0..1]. Alternative to temperature.
	TopK        int     `json:"top_k,omitempty"`       // Sample from the top K token candidates only.
}

// Merge returns a copy of base with every non-zero field of override applied
// on top. Either argument may be nil. The merge is field-by-field so a caller
// can override only temperature while keeping the configured max_tokens.
func (base *GenerationConfig) Merge(override *GenerationConfig) *GenerationConfig {
	if base == nil && override == nil {
		return nil
	}

	merged := GenerationConfig{}
	if base != nil {
		merged = *base
	}
	if override != nil {
		if override.MaxTokens > 0 {
			merged.MaxTokens = override.MaxTokens
		}
		if override.Temperature > 0 {
			merged.Temperature = override.Temperature
		}
		if override.TopP > 0 {
			merged.TopP = override.TopP
		}
		if override.TopK > 0 {
			merged.TopK = override.TopK
		}
	}
	return &merged
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
	CachedTokens     int `json:"cached_tokens,omitempty"` // Cached prompt tokens
}

// ChatResponse represents the completed response from a chat provider.
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// AsMessage converts the response into a RoleModel conversation turn so it can
// be appended to memory and fed back into subsequent requests.
func (response *ChatResponse) AsMessage() Message {
	return Message{
		Role:      RoleModel,
		Content:   response.Content,
		ToolCalls: response.ToolCalls,
	}
}

/*
	##### TOOL CALLING #####
*/

// ToolCall represents a model-issued request to invoke a named tool.
// ID is stable between the issuing model message and its matching
// function reply; tool_use/tool_result pairing on the wire depends on it.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ArgumentsJSON returns the call arguments encoded as a JSON object string.
// A nil arguments map encodes as "{}" so providers always receive a valid
// JSON value for the tool input field.
func (call ToolCall) ArgumentsJSON() string {
	if len(call.Arguments) == 0 {
		return "{}"
	}
	encoded, err := json.Marshal(call.Arguments)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

/*
	##### ROLES #####
*/

// MessageRole represents the role of a message; compatible with string.
type MessageRole string

const (
	RoleSystem   MessageRole = "system"   // System instructions/configuration
	RoleUser     MessageRole = "user"     // End-user message
	RoleModel    MessageRole = "model"    // Model response
	RoleFunction MessageRole = "function" // Tool/function output
)

// SplitSystem returns the out-of-band system directive and the remaining
// history with every system row removed. The first system message wins when
// several exist; later ones are dropped, by policy, not merged. The input
// slice is never mutated.
//
// This is the single place where the "system is out-of-band" rule lives:
// callers building a ChatRequest route history through here, so provider
// translators never see system rows.
func SplitSystem(messages []Message) (string, []Message) {
	system := ""
	seenSystem := false
	rest := make([]Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			// First row wins even when its content is empty; keying on the
			// accumulated string would let a later row overwrite it.
			if !seenSystem {
				system = msg.Content
				seenSystem = true
			}
			continue
		}
		rest = append(rest, msg)
	}

	return system, rest
}

// FlattenContent returns the textual form of a message's content. Multi-part
// content is narrowed to a single string: text parts are concatenated in
// order and non-text parts contribute their nearest string form (an image
// URI, or the mime type for inline data). Callers needing full multi-part
// fidelity should read ContentParts directly.
func (message Message) FlattenContent() string {
	if len(message.ContentParts) == 0 {
		return message.Content
	}

	var sb strings.Builder
	for _, part := range message.ContentParts {
		switch part.Type {
		case ContentTypeText:
			sb.WriteString(part.Text)
		case ContentTypeImage:
			if part.Image == nil {
				continue
			}
			if part.Image.URI != "" {
				sb.WriteString(part.Image.URI)
			} else {
				sb.WriteString("[image " + part.Image.MimeType + "]")
			}
		}
	}
	return sb.String()
}
