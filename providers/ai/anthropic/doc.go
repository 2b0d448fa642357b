// Package anthropic adapts the generic chat model in
// [github.com/hyperia-ai/chatglue/providers/ai] to Anthropic's Messages API.
//
// The package owns the full wire boundary: converting role-tagged messages to
// user/assistant turns with content blocks (text, image, tool_use,
// tool_result), advertising tool declarations, dispatching synchronous and
// SSE-streaming requests, and mapping responses back to the generic format.
//
// Roles map as follows: user → "user"; model → "assistant" (tool calls become
// tool_use blocks); function → "user" carrying a tool_result block; system
// rows travel out-of-band in the top-level system field and are skipped by
// the message translator. Any other role is a programmer error and surfaces
// as [ErrUnsupportedRole].
package anthropic
