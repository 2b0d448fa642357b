package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperia-ai/chatglue/core/parse"
	"github.com/hyperia-ai/chatglue/internal/jsonschema"
	"github.com/hyperia-ai/chatglue/internal/utils"
	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/observability"
)

// GenericTool is the provider-agnostic interface for all tools.
// It abstracts over concrete handler signatures so tools can be stored,
// dispatched, and introspected without knowing their exact input/output types.
type GenericTool interface {
	// ToolInfo returns the metadata (name, description, parameter schema)
	// used to advertise this tool to an AI provider.
	ToolInfo() ai.ToolDescription

	// Call invokes the tool with the decoded argument map and returns its
	// output as a string (non-string results are JSON-serialized).
	// Returns an error if argument binding or execution fails.
	Call(ctx context.Context, arguments map[string]any) (string, error)
}

// Tool binds a name and description to a strongly-typed Go function and
// automatically derives a JSON schema for the input type I via reflection.
// Use [NewTool] to construct one; it satisfies [GenericTool].
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

// funcToolOptions holds optional configuration for a tool created via [NewTool].
type funcToolOptions struct {
	Description string
}

// WithDescription sets a human-readable description for the tool.
// Providers surface this description to the language model to help it decide
// when and how to invoke the tool.
func WithDescription(description string) func(options *funcToolOptions) {
	return func(options *funcToolOptions) {
		options.Description = description
	}
}

// NewTool constructs a typed [Tool] with the given name and handler function.
// The JSON schema for the input type I is derived automatically via reflection.
//
// Example:
//
//	weather := tool.NewTool("get_weather", getWeather,
//	    tool.WithDescription("Returns current weather for a city."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(options *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.GenerateJSONSchema[I](),
		Function:    function,
	}
}

// ToolInfo returns the [ai.ToolDescription] used to advertise this tool.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call binds the argument map to the tool's input type I, executes the
// function, and returns the result serialized as JSON (strings pass through
// unquoted). Execution is traced when an observer is present in ctx.
func (t *Tool[I, O]) Call(ctx context.Context, arguments map[string]any) (string, error) {
	observer := observability.ObserverFromContext(ctx)

	encoded, err := json.Marshal(arguments)
	if err != nil {
		return "", fmt.Errorf("failed to encode arguments for tool %q: %w", t.Name, err)
	}

	input, err := parse.StringAs[I](string(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to bind arguments for tool %q: %w", t.Name, err)
	}

	start := time.Now()
	output, err := t.Function(ctx, input)
	duration := time.Since(start)

	if err != nil {
		if observer != nil {
			observer.Debug(ctx, "tool execution failed",
				observability.String(observability.AttrToolName, t.Name),
				observability.Duration("tool.duration", duration),
				observability.Error(err),
			)
		}
		return "", err
	}

	if observer != nil {
		observer.Trace(ctx, "tool executed",
			observability.String(observability.AttrToolName, t.Name),
			observability.Duration("tool.duration", duration),
		)
	}

	return stringifyOutput(output)
}

// FuncTool wraps an untyped handler operating directly on the decoded
// argument map. It serves callers that register tools from loose
// function-definition maps instead of typed Go signatures.
type FuncTool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Handler     func(ctx context.Context, arguments map[string]any) (any, error)
}

var _ GenericTool = (*FuncTool)(nil)

// ToolInfo returns the [ai.ToolDescription] used to advertise this tool.
func (t *FuncTool) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call invokes the handler. String results pass through unchanged; any other
// value is serialized to JSON so the model always receives text.
func (t *FuncTool) Call(ctx context.Context, arguments map[string]any) (string, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	output, err := t.Handler(ctx, arguments)
	if err != nil {
		return "", err
	}
	return stringifyOutput(output)
}

// stringifyOutput narrows a handler result to text: strings pass through,
// everything else is JSON-encoded.
func stringifyOutput(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	return utils.JSONToString(output), nil
}
