// Package client orchestrates multi-turn conversations: it drives the send
// state machine over a memory-backed history, executes registered tools when
// the model requests them, continues the conversation in a bounded loop, and
// degrades failures into well-formed error replies instead of raising them.
package client
