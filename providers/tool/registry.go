package tool

import (
	"errors"
	"fmt"

	"github.com/hyperia-ai/chatglue/providers/ai"
)

// Registration errors returned by [Registry.Register].
var (
	ErrEmptyName      = errors.New("tool name must not be empty")
	ErrNilTool        = errors.New("tool must not be nil")
	ErrDuplicateName  = errors.New("tool name already registered")
	ErrMissingHandler = errors.New("tool handler must not be nil")
)

// Registry maps tool names to callable tools. Validation happens at
// registration time, not at call time, so a misconfigured tool surfaces
// immediately instead of mid-conversation. Registration order is preserved
// when advertising descriptions to the provider.
//
// Registry is not safe for concurrent mutation; register all tools before
// sharing it across sends.
type Registry struct {
	tools map[string]GenericTool
	order []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: map[string]GenericTool{},
	}
}

// Register adds a tool to the registry. It rejects nil tools, empty names,
// duplicate names, and FuncTools without a handler.
func (r *Registry) Register(t GenericTool) error {
	if t == nil {
		return ErrNilTool
	}

	info := t.ToolInfo()
	if info.Name == "" {
		return ErrEmptyName
	}
	if _, exists := r.tools[info.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, info.Name)
	}
	if funcTool, ok := t.(*FuncTool); ok && funcTool.Handler == nil {
		return fmt.Errorf("%w: %q", ErrMissingHandler, info.Name)
	}

	r.tools[info.Name] = t
	r.order = append(r.order, info.Name)
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (GenericTool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Descriptions returns one [ai.ToolDescription] per registered tool, in
// registration order, for advertising to a provider.
func (r *Registry) Descriptions() []ai.ToolDescription {
	if len(r.order) == 0 {
		return nil
	}
	descriptions := make([]ai.ToolDescription, 0, len(r.order))
	for _, name := range r.order {
		descriptions = append(descriptions, r.tools[name].ToolInfo())
	}
	return descriptions
}
