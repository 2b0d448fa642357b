package observability

// Semantic attribute keys shared across the adapter so log events stay
// queryable by a single name per concept.
const (
	AttrLLMProvider     = "llm.provider"
	AttrLLMModel        = "llm.model"
	AttrLLMEndpoint     = "llm.endpoint"
	AttrLLMResponseID   = "llm.response.id"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrLLMTokensTotal  = "llm.tokens.total"

	AttrRequestMessagesCount = "request.messages.count"
	AttrRequestToolsCount    = "request.tools.count"

	AttrHTTPMethod     = "http.method"
	AttrHTTPURL        = "http.url"
	AttrHTTPStatusCode = "http.status_code"

	AttrToolName      = "tool.name"
	AttrToolCallID    = "tool.call_id"
	AttrToolError     = "tool.error"
	AttrSendIteration = "send.iteration"
)
