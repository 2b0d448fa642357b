package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/hyperia-ai/chatglue/internal/utils"
	"github.com/hyperia-ai/chatglue/providers/ai"
	"github.com/hyperia-ai/chatglue/providers/observability"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion is the required anthropic-version header value.
	// Anthropic uses this to version-lock response formats independently of the URL.
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements [ai.Provider] and [ai.StreamProvider] for
// Anthropic's Messages API. Use [New] to construct a ready-to-use instance.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an [AnthropicProvider] initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL for
// the endpoint base (defaulting to https://api.anthropic.com/v1 when unset).
// Use [AnthropicProvider.WithAPIKey] and [AnthropicProvider.WithBaseURL] to
// override these values after construction; call [AnthropicProvider.Validate]
// (the client constructor does) to fail fast on missing credentials.
func New() *AnthropicProvider {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests and returns the
// provider so calls can be chained. It overrides the value read from ANTHROPIC_API_KEY.
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL and returns the provider so calls can
// be chained. Use this when targeting a proxy or local testing endpoint.
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the provider so calls can be chained. Useful for injecting custom
// timeouts, transport layers, or test doubles. Timeouts are configured here,
// once; they are not adjustable per call.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// Validate implements [ai.Provider]. It reports a configuration error when the
// API key is missing so construction-time checks fail before the first request.
func (p *AnthropicProvider) Validate() error {
	if p.apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	return nil
}

// buildHeaders constructs the HTTP headers required for every Anthropic request.
// x-api-key carries the credential (Anthropic does not use Bearer tokens) and
// anthropic-version pins the wire format.
func (p *AnthropicProvider) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// SendMessage implements [ai.Provider] by sending a synchronous chat request to
// Anthropic's Messages API and returning the full response mapped to the generic
// [ai.ChatResponse] format. It returns an error if the API key is unset, the HTTP
// request fails, or the response body is empty.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	observer := observability.ObserverFromContext(ctx)

	if observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing request",
			observability.String(observability.AttrLLMProvider, "anthropic"),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	// Guard against missing credentials before making a network call.
	if err := p.Validate(); err != nil {
		return nil, err
	}

	url := p.baseURL + messagesEndpoint

	// Convert the generic request to the Anthropic Messages wire format.
	anthropicReq, err := requestToAnthropic(request)
	if err != nil {
		return nil, fmt.Errorf("failed to build Anthropic request: %w", err)
	}

	// Pass empty apiKey so DoPostSync does not inject a Bearer token;
	// Anthropic authenticates via x-api-key instead.
	httpResponse, resp, err := utils.DoPostSync[anthropicResponse](
		ctx,
		p.client,
		url,
		"",
		anthropicReq,
		p.buildHeaders()...,
	)
	if err != nil {
		if observer != nil {
			observer.Trace(ctx, "HTTP request failed", observability.Error(err))
		}
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("empty response from Anthropic API: %s", httpResponse.Status)
	}

	// Convert the Anthropic-specific response to the provider-agnostic format.
	result := anthropicToGeneric(*resp)
	result.Id = responseIDOrFallback(result.Id)

	// Anthropic usually echoes the model name in the response, but when it is
	// absent we fall back to the request model so callers always have a
	// non-empty Model field.
	if result.Model == "" {
		result.Model = request.Model
	}

	if observer != nil {
		observer.Trace(ctx, "Anthropic response decoded",
			observability.String(observability.AttrLLMResponseID, result.Id),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrHTTPStatusCode, httpResponse.StatusCode),
		)
	}

	return result, nil
}
