package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperia-ai/chatglue/core/parse"
	"github.com/hyperia-ai/chatglue/providers/ai"
)

// ErrUnsupportedRole is returned when the history contains a role the
// Messages API has no mapping for. This is a programmer error: the caller
// built an invalid conversation, and it must propagate rather than be
// degraded into a reply.
var ErrUnsupportedRole = errors.New("unsupported message role")

// requestToAnthropic converts an ai.ChatRequest into an anthropicRequest
// ready to POST to Anthropic's Messages API. GenerationConfig fields are
// optional; safe defaults are applied when absent.
func requestToAnthropic(request ai.ChatRequest) (anthropicRequest, error) {
	messages, err := buildMessages(request.Messages)
	if err != nil {
		return anthropicRequest{}, err
	}

	req := anthropicRequest{
		Model:    request.Model,
		Messages: messages,
		System:   request.SystemPrompt,
	}

	maxTokens := 4096 // Anthropic requires max_tokens on every request
	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.Temperature > 0 {
			temp := float64(cfg.Temperature)
			req.Temperature = &temp
		}
		if cfg.TopP > 0 {
			topP := float64(cfg.TopP)
			req.TopP = &topP
		}
		if cfg.TopK > 0 {
			topK := cfg.TopK
			req.TopK = &topK
		}
		if cfg.MaxTokens > 0 {
			maxTokens = cfg.MaxTokens
		}
	}
	req.MaxTokens = maxTokens

	if len(request.Tools) > 0 {
		req.Tools = buildTools(request.Tools)
		req.ToolChoice = buildAnthropicToolChoice(request.ToolChoice)
	}

	return req, nil
}

// buildAnthropicToolChoice converts an ai.ToolChoice to its Anthropic wire
// representation. Returns nil when no explicit tool choice is specified,
// letting the API apply its default ("auto") behavior.
func buildAnthropicToolChoice(tc *ai.ToolChoice) *anthropicToolChoice {
	if tc == nil {
		return nil
	}

	if tc.ToolChoiceForced != "" {
		forcedName := tc.ToolChoiceForced
		// "auto" and "any" are Anthropic type literals, not tool names.
		switch strings.ToLower(forcedName) {
		case "auto":
			return &anthropicToolChoice{Type: "auto"}
		case "any", "required":
			return &anthropicToolChoice{Type: "any"}
		default:
			// Specific tool name, so force the model to call exactly this tool.
			return &anthropicToolChoice{Type: "tool", Name: forcedName}
		}
	}

	if tc.AtLeastOneRequired {
		return &anthropicToolChoice{Type: "any"}
	}

	return nil
}

// buildMessages converts a slice of ai.Message into Anthropic message objects.
//
// Mapping rules:
//   - user → "user"; multi-part content becomes one block per part
//   - model → "assistant"; a leading text block (only when text is non-empty)
//     followed by one tool_use block per call. A model turn with empty text
//     and no calls produces no blocks and is dropped from the wire history:
//     Anthropic rejects empty assistant messages, so this narrows the plain
//     text mapping for that one degenerate case
//   - function → "user" with a single tool_result block referencing the
//     answered call
//   - system → skipped; ai.SplitSystem routes the directive out-of-band, so a
//     system row reaching this point is a stray the caller already chose to
//     leave behind
//   - anything else → ErrUnsupportedRole
//
// Anthropic requires strictly alternating user/assistant turns. Consecutive
// function replies are therefore merged into a single user message with
// multiple tool_result content blocks, which is the only layout the API
// accepts.
func buildMessages(messages []ai.Message) ([]anthropicMessage, error) {
	var result []anthropicMessage

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleUser:
			userMsg := anthropicMessage{Role: "user"}
			if len(msg.ContentParts) > 0 {
				userMsg.Content = contentPartsToBlocks(msg.ContentParts)
			} else {
				userMsg.Content = []anthropicContentBlock{
					{Type: "text", Text: msg.Content},
				}
			}
			result = append(result, userMsg)

		case ai.RoleModel:
			assistantMsg := anthropicMessage{Role: "assistant"}

			// Leading text block only when the model actually said something;
			// an empty text block alongside tool_use blocks is rejected.
			if msg.Content != "" {
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{
					Type: "text",
					Text: msg.Content,
				})
			}

			for _, toolCall := range msg.ToolCalls {
				assistantMsg.Content = append(assistantMsg.Content, anthropicContentBlock{
					Type:  "tool_use",
					ID:    toolUseIDOrFabricate(toolCall.ID),
					Name:  toolCall.Name,
					Input: json.RawMessage(toolCall.ArgumentsJSON()),
				})
			}

			if len(assistantMsg.Content) > 0 {
				result = append(result, assistantMsg)
			}

		case ai.RoleFunction:
			// Marshal the tool result content as a JSON string so Anthropic
			// receives a well-formed JSON value in the content field.
			toolResultContent, err := json.Marshal(msg.Content)
			if err != nil {
				toolResultContent = []byte(`"` + msg.Content + `"`)
			}

			toolResultBlock := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   toolResultContent,
			}

			// Merge consecutive tool results into a single user message.
			// Anthropic forbids two consecutive user turns, so multiple tool
			// responses must be combined into one message.
			if len(result) > 0 && isAllToolResults(result[len(result)-1]) {
				result[len(result)-1].Content = append(result[len(result)-1].Content, toolResultBlock)
			} else {
				result = append(result, anthropicMessage{
					Role:    "user",
					Content: []anthropicContentBlock{toolResultBlock},
				})
			}

		case ai.RoleSystem:
			// System directives travel in the top-level system field; skip here.

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedRole, msg.Role)
		}
	}

	return result, nil
}

// isAllToolResults returns true when every content block in msg is a
// tool_result block, identifying the last message as a mergeable
// tool-result turn.
func isAllToolResults(msg anthropicMessage) bool {
	if msg.Role != "user" || len(msg.Content) == 0 {
		return false
	}
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}

// contentPartsToBlocks converts generic ContentPart values into Anthropic
// content blocks. Text parts map to text blocks, image parts to image blocks
// (url or inline base64). Unknown part kinds are narrowed to their string
// form so no content silently disappears.
func contentPartsToBlocks(parts []ai.ContentPart) []anthropicContentBlock {
	var blocks []anthropicContentBlock

	for _, part := range parts {
		switch part.Type {
		case ai.ContentTypeText:
			blocks = append(blocks, anthropicContentBlock{
				Type: "text",
				Text: part.Text,
			})

		case ai.ContentTypeImage:
			if part.Image == nil {
				continue
			}
			block := anthropicContentBlock{Type: "image"}
			if part.Image.URI != "" {
				block.Source = &anthropicSource{
					Type: "url",
					URL:  part.Image.URI,
				}
			} else {
				block.Source = &anthropicSource{
					Type:      "base64",
					MediaType: part.Image.MimeType,
					Data:      part.Image.Data,
				}
			}
			blocks = append(blocks, block)

		default:
			// Unknown part kinds narrow to text.
			blocks = append(blocks, anthropicContentBlock{
				Type: "text",
				Text: part.Text,
			})
		}
	}

	return blocks
}

// buildTools converts the provider-agnostic ToolDescription slice to
// Anthropic tool definitions. A missing description defaults to
// "Function: <name>". The schema's required list is always empty:
// parameter required-ness is not propagated to the provider, so the model
// treats every parameter as optional.
func buildTools(tools []ai.ToolDescription) []anthropicTool {
	result := make([]anthropicTool, 0, len(tools))

	for _, tool := range tools {
		description := tool.Description
		if description == "" {
			description = "Function: " + tool.Name
		}

		entry := anthropicTool{
			Name:        tool.Name,
			Description: description,
			InputSchema: buildInputSchema(tool),
		}
		result = append(result, entry)
	}

	return result
}

// buildInputSchema produces the input_schema payload for a tool declaration:
// always an object schema, with the tool's properties when present and an
// explicitly empty required list.
func buildInputSchema(tool ai.ToolDescription) json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
	if tool.Parameters != nil && tool.Parameters.Properties != nil {
		schema["properties"] = tool.Parameters.Properties
	}

	encoded, err := json.Marshal(schema)
	if err != nil {
		// The schema map above only holds marshalable values; this path
		// exists for the Properties payload. Anthropic requires input_schema,
		// so fall back to the empty object schema.
		return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
	}
	return encoded
}

// toolUseIDOrFabricate returns id unchanged when the caller supplied one, or
// mints a fresh process-unique id. Fabricated ids must never collide across
// distinct calls because tool_use/tool_result pairing keys on them.
func toolUseIDOrFabricate(id string) string {
	if id != "" {
		return id
	}
	return "toolu_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// anthropicToGeneric converts an Anthropic Messages API response to the
// provider-agnostic ai.ChatResponse format.
//
// Multiple text blocks are joined with newlines into a single Content string.
// Unknown block types are silently skipped for forward-compatibility with
// future Anthropic content types.
func anthropicToGeneric(response anthropicResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    response.ID,
		Model: response.Model,
	}

	var textParts []string

	for _, block := range response.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)

		case "tool_use":
			arguments, err := parse.Arguments(string(block.Input))
			if err != nil {
				arguments = map[string]any{}
			}
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: arguments,
			})
		}
	}

	result.Content = strings.Join(textParts, "\n")
	result.FinishReason = mapStopReason(response.StopReason)

	result.Usage = &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		CachedTokens:     response.Usage.CacheCreationInputTokens + response.Usage.CacheReadInputTokens,
	}

	return result
}

// mapStopReason converts an Anthropic stop_reason value to the canonical
// finish_reason string used by ai.ChatResponse.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	default:
		return "stop"
	}
}

// responseIDOrFallback returns the response ID when present, or a generated
// fallback so callers always have a non-empty id even for partial responses.
func responseIDOrFallback(id string) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("anthropic-%d", time.Now().UnixNano())
}
