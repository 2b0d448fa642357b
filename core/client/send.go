package client

import (
	"context"

	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/observability"
)

// SendOption configures a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	model            string
	systemPrompt     string
	generationConfig *ai.GenerationConfig
	toolChoice       *ai.ToolChoice
	onDelta          func(delta string)
}

// WithSendModel overrides the client's default model for this call only.
func WithSendModel(model string) SendOption {
	return func(o *sendOptions) { o.model = model }
}

// WithSendSystemPrompt overrides the system directive for this call only.
// It takes precedence over both the client default and any system rows in
// memory.
func WithSendSystemPrompt(systemPrompt string) SendOption {
	return func(o *sendOptions) { o.systemPrompt = systemPrompt }
}

// WithSendGenerationConfig merges per-call generation parameters on top of
// the client defaults, field-by-field.
func WithSendGenerationConfig(config ai.GenerationConfig) SendOption {
	return func(o *sendOptions) { o.generationConfig = &config }
}

// WithSendToolChoice constrains which tool the model may call on this send.
// The constraint reaches the provider only when tools are advertised.
func WithSendToolChoice(choice ai.ToolChoice) SendOption {
	return func(o *sendOptions) { o.toolChoice = &choice }
}

// WithDelta registers a streaming callback invoked for every text delta, in
// arrival order. The callback blocks the stream: it completes for one delta
// before the next is processed, so deltas are never skipped or reordered.
// When set, dispatch uses the provider's streaming path if it implements
// [ai.StreamProvider]; otherwise the full response is delivered as one delta.
func WithDelta(onDelta func(delta string)) SendOption {
	return func(o *sendOptions) { o.onDelta = onDelta }
}

// Send runs one logical conversation turn and returns its terminal Result.
// It never returns a raw error: failures during request building or dispatch
// degrade into a RoleModel message whose content is "Error: <cause>", with
// the structured cause in Result.Err. Translation of an invalid role is the
// one exception routed the same way but flagged with ErrUnsupportedRole so
// programmer errors stay distinguishable.
//
// The turn is a bounded loop:
//
//  1. Append input to memory.
//  2. If input is a model message with tool calls (and auto tool calling is
//     on), execute the first call that has a registered handler and append
//     its function reply. Only the first matched call runs per turn; the
//     model sees its result and may re-issue the rest.
//  3. Build the request from memory (system extracted out-of-band, per-call
//     overrides merged) and dispatch, streaming when a delta callback is set.
//  4. Append the model reply. If it carries tool calls and auto tool calling
//     is on, loop; otherwise return it.
//
// The loop runs at most the configured max tool iterations; exhaustion
// degrades to an error-content reply flagged ErrToolIterationsExceeded.
func (c *Client) Send(ctx context.Context, input ai.Message, options ...SendOption) Result {
	opts := &sendOptions{}
	for _, option := range options {
		option(opts)
	}

	if c.observer != nil {
		ctx = observability.WithObserver(ctx, c.observer)
	}

	c.memory.AppendMessage(ctx, &input)
	current := input

	for iteration := 0; iteration < c.maxToolIterations; iteration++ {
		if c.observer != nil {
			c.observer.Debug(ctx, "send iteration",
				observability.Int(observability.AttrSendIteration, iteration),
				observability.String("send.input.role", string(current.Role)),
			)
		}

		// FunctionDispatch: an inbound model message carrying tool calls is
		// answered before the provider sees the history again. When no call
		// matches a registered handler, fall through with no side effects and
		// let the model react to the unanswered calls.
		if c.shouldDispatchTools(current) {
			if functionReply, executed := c.executeFirstMatchedCall(ctx, current); executed {
				c.memory.AppendMessage(ctx, &functionReply)
				current = functionReply
			}
		}

		// BuildRequest
		request, err := c.buildRequest(ctx, opts)
		if err != nil {
			return c.failure(ctx, err)
		}

		// Dispatch
		var response *ai.ChatResponse
		if opts.onDelta != nil {
			response, err = c.dispatchStreaming(ctx, request, opts.onDelta)
		} else {
			response, err = c.provider.SendMessage(ctx, request)
		}
		if err != nil {
			return c.failure(ctx, err)
		}

		// Persist
		reply := response.AsMessage()
		c.memory.AppendMessage(ctx, &reply)

		// Continue-or-Return
		if len(reply.ToolCalls) > 0 && c.autoToolCalling && c.registry.Len() > 0 {
			current = reply
			continue
		}
		return Result{Message: reply}
	}

	return c.failure(ctx, ErrToolIterationsExceeded)
}

// shouldDispatchTools reports whether current is a model turn whose tool
// calls the client is configured to execute.
func (c *Client) shouldDispatchTools(current ai.Message) bool {
	return current.Role == ai.RoleModel &&
		len(current.ToolCalls) > 0 &&
		c.autoToolCalling &&
		c.registry.Len() > 0
}

// executeFirstMatchedCall walks the tool calls in array order and executes
// the first one with a registered handler. A handler error is folded into the
// function reply as "Error: <cause>" so the model can react; the send itself
// continues. The second return is false when no call matched.
func (c *Client) executeFirstMatchedCall(ctx context.Context, modelMsg ai.Message) (ai.Message, bool) {
	for _, call := range modelMsg.ToolCalls {
		handler, ok := c.registry.Lookup(call.Name)
		if !ok {
			continue
		}

		content, err := handler.Call(ctx, call.Arguments)
		if err != nil {
			content = "Error: " + err.Error()
			if c.observer != nil {
				c.observer.Warn(ctx, "tool handler failed",
					observability.String(observability.AttrToolName, call.Name),
					observability.String(observability.AttrToolCallID, call.ID),
					observability.Error(err),
				)
			}
		}

		return ai.Message{
			Role:       ai.RoleFunction,
			Content:    content,
			ToolCallID: call.ID,
			Name:       call.Name,
		}, true
	}

	return ai.Message{}, false
}

// buildRequest assembles the provider request from the current memory state.
// The system directive resolves with per-call override first, then the client
// default, then the first system row in memory; system rows never reach the
// message list.
func (c *Client) buildRequest(ctx context.Context, opts *sendOptions) (ai.ChatRequest, error) {
	history, err := c.memory.AllMessages(ctx)
	if err != nil {
		return ai.ChatRequest{}, err
	}

	systemPrompt, rest := ai.SplitSystem(history)
	if c.systemPrompt != "" {
		systemPrompt = c.systemPrompt
	}
	if opts.systemPrompt != "" {
		systemPrompt = opts.systemPrompt
	}

	model := c.model
	if opts.model != "" {
		model = opts.model
	}

	request := ai.ChatRequest{
		Model:            model,
		Messages:         rest,
		SystemPrompt:     systemPrompt,
		GenerationConfig: c.generationConfig.Merge(opts.generationConfig),
	}

	if c.registry.Len() > 0 {
		request.Tools = c.registry.Descriptions()
		request.ToolChoice = opts.toolChoice
	}

	return request, nil
}

// dispatchStreaming sends the request over the provider's streaming path,
// forwarding each text delta to onDelta in order while accumulating the full
// response. Providers without streaming support fall back to the synchronous
// path, with the complete content delivered as a single delta.
func (c *Client) dispatchStreaming(ctx context.Context, request ai.ChatRequest, onDelta func(string)) (*ai.ChatResponse, error) {
	streamProvider, ok := c.provider.(ai.StreamProvider)
	if !ok {
		response, err := c.provider.SendMessage(ctx, request)
		if err != nil {
			return nil, err
		}
		if response.Content != "" {
			onDelta(response.Content)
		}
		return response, nil
	}

	stream, err := streamProvider.StreamMessage(ctx, request)
	if err != nil {
		return nil, err
	}

	return stream.CollectFunc(onDelta)
}

// failure converts err into the terminal degraded Result: a RoleModel message
// whose content carries the "Error: " prefix, appended to memory so the
// conversation records the failure, with the structured cause in Result.Err.
func (c *Client) failure(ctx context.Context, err error) Result {
	if c.observer != nil {
		c.observer.Error(ctx, "send degraded to error reply", observability.Error(err))
	}

	reply := ai.Message{
		Role:    ai.RoleModel,
		Content: "Error: " + err.Error(),
	}
	c.memory.AppendMessage(ctx, &reply)

	return Result{Message: reply, Err: err}
}
