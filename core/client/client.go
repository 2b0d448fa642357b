package client

import (
	"errors"
	"fmt"

	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/memory"
	"github.com/hyperia-ai/chatglue/providers/memory/inmemory"
	"github.com/hyperia-ai/chatglue/providers/observability"
	"github.com/hyperia-ai/chatglue/providers/tool"
)

// defaultMaxToolIterations bounds the tool-calling continuation loop. A model
// that keeps issuing tool calls would otherwise round-trip forever.
const defaultMaxToolIterations = 10

// Construction errors.
var (
	// ErrNoProvider is returned by New when no provider is supplied.
	ErrNoProvider = errors.New("client requires a provider")

	// ErrToolIterationsExceeded flags a send that hit the tool-calling
	// iteration bound before the model produced a terminal reply.
	ErrToolIterationsExceeded = errors.New("tool call iteration limit exceeded")
)

// Result is the outcome of one [Client.Send]. Message is always a valid
// RoleModel turn that callers can read Content from without error handling.
// Err carries the structured failure when the turn degraded: transport
// failures, request-building failures, and iteration-limit exhaustion all
// land here, with Message.Content mirroring them as "Error: ..." text so the
// conversation itself records what happened.
type Result struct {
	Message ai.Message
	Err     error
}

// Client orchestrates conversations against a provider: it owns the send
// state machine (append input, execute tool calls, build and dispatch the
// request, persist the reply, continue while the model keeps calling tools).
//
// A Client is safe to reuse across sequential sends. Sharing one memory
// instance across concurrent sends requires external serialization: the
// orchestrator performs an unsynchronized read-then-append.
type Client struct {
	provider          ai.Provider
	memory            memory.Provider
	registry          *tool.Registry
	observer          observability.Observer
	model             string
	systemPrompt      string
	generationConfig  *ai.GenerationConfig
	autoToolCalling   bool
	maxToolIterations int
}

// New constructs a Client for the given provider. It fails fast on a nil
// provider and on provider misconfiguration (via [ai.Provider.Validate]), so
// credential problems surface here rather than on the first send.
// When no memory is supplied via [Client.WithMemory], a fresh in-memory store
// is created and owned by the client.
func New(provider ai.Provider, options ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if err := provider.Validate(); err != nil {
		return nil, fmt.Errorf("provider validation failed: %w", err)
	}

	c := &Client{
		provider:          provider,
		memory:            inmemory.New(),
		registry:          tool.NewRegistry(),
		autoToolCalling:   true,
		maxToolIterations: defaultMaxToolIterations,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Option configures a Client at construction time.
type Option func(*Client) error

// WithMemory supplies the conversation memory the client reads and appends.
// The caller keeps ownership of the store and its contents; the client never
// removes or reorders entries.
func WithMemory(store memory.Provider) Option {
	return func(c *Client) error {
		if store == nil {
			return errors.New("memory store must not be nil")
		}
		c.memory = store
		return nil
	}
}

// WithModel sets the default model id for requests.
func WithModel(model string) Option {
	return func(c *Client) error {
		c.model = model
		return nil
	}
}

// WithSystemPrompt sets a default system directive applied to every send
// unless overridden per call.
func WithSystemPrompt(systemPrompt string) Option {
	return func(c *Client) error {
		c.systemPrompt = systemPrompt
		return nil
	}
}

// WithGenerationConfig sets the default generation parameters. Per-send
// overrides are merged field-by-field on top.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(c *Client) error {
		c.generationConfig = &config
		return nil
	}
}

// WithTools registers the given tools, validating each at registration time.
func WithTools(tools ...tool.GenericTool) Option {
	return func(c *Client) error {
		for _, t := range tools {
			if err := c.registry.Register(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithAutoToolCalling toggles automatic tool execution. When disabled, model
// messages carrying tool calls are returned to the caller as-is.
func WithAutoToolCalling(enabled bool) Option {
	return func(c *Client) error {
		c.autoToolCalling = enabled
		return nil
	}
}

// WithMaxToolIterations bounds the number of model round trips one Send may
// perform while the model keeps issuing tool calls.
func WithMaxToolIterations(iterations int) Option {
	return func(c *Client) error {
		if iterations < 1 {
			return errors.New("max tool iterations must be at least 1")
		}
		c.maxToolIterations = iterations
		return nil
	}
}

// WithObserver wires structured logging into every send.
func WithObserver(observer observability.Observer) Option {
	return func(c *Client) error {
		c.observer = observer
		return nil
	}
}
