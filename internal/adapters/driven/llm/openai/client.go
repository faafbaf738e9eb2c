// Package openai provides a tool-calling model client for OpenAI-compatible
// chat APIs. Pointing BaseURL at an Ollama or vLLM /v1 endpoint works the
// same way.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ModelClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4000
)

// Config holds configuration for the OpenAI client.
type Config struct {
	// APIKey is the API key (required for api.openai.com; local servers
	// usually accept anything).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the response length (default: 4000).
	MaxTokens int
}

// Client conducts tool-calling conversations against a /chat/completions
// endpoint.
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// toolCallRef is the wire format of a requested tool call. Arguments is
// a JSON string, not an object.
type toolCallRef struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// chatMessage is the OpenAI chat message format.
type chatMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []toolCallRef `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// toolSchema is the OpenAI function-tool definition format.
type toolSchema struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type paramSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]propertyDesc `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

type propertyDesc struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Tools     []toolSchema  `json:"tools,omitempty"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string        `json:"content"`
			ToolCalls []toolCallRef `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Converse sends the full message history plus tool schemas and returns
// the model's next response. At most one tool request is decoded per
// round; additional tool calls in a response are ignored.
func (c *Client) Converse(
	ctx context.Context,
	messages []domain.Message,
	tools []domain.ToolSpec,
) (*driven.ModelResponse, error) {
	apiMessages, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}

	reqBody := chatRequest{
		Model:     c.model,
		Messages:  apiMessages,
		MaxTokens: c.maxTokens,
		Tools:     convertTools(tools),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrModelUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: openai status 429", domain.ErrRateLimited)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrModelUnavailable, err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelUnavailable, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrModelUnavailable, resp.StatusCode, string(body))
	}

	return decodeResponse(&chatResp)
}

// convertMessages maps the domain history onto the wire format.
func convertMessages(messages []domain.Message) ([]chatMessage, error) {
	out := make([]chatMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem, domain.RoleUser:
			out = append(out, chatMessage{Role: msg.Role, Content: msg.Content})

		case domain.RoleAssistant:
			m := chatMessage{Role: "assistant", Content: msg.Content}
			if msg.ToolName != "" {
				args := msg.ToolArgs
				if args == "" {
					args = "{}"
				}
				var ref toolCallRef
				ref.ID = msg.ToolCallID
				ref.Type = "function"
				ref.Function.Name = msg.ToolName
				ref.Function.Arguments = args
				m.ToolCalls = []toolCallRef{ref}
			}
			out = append(out, m)

		case domain.RoleTool:
			out = append(out, chatMessage{
				Role:       "tool",
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})

		default:
			return nil, fmt.Errorf("%w: unknown message role %q", domain.ErrInvalidInput, msg.Role)
		}
	}

	return out, nil
}

// convertTools maps tool specs onto the OpenAI function schema.
func convertTools(tools []domain.ToolSpec) []toolSchema {
	if len(tools) == 0 {
		return nil
	}

	out := make([]toolSchema, 0, len(tools))
	for _, tool := range tools {
		params := paramSchema{
			Type:       "object",
			Properties: make(map[string]propertyDesc, len(tool.Parameters)),
		}
		for _, param := range tool.Parameters {
			params.Properties[param.Name] = propertyDesc{
				Type:        param.Type,
				Description: param.Description,
				Enum:        param.Enum,
			}
			if param.Required {
				params.Required = append(params.Required, param.Name)
			}
		}
		raw, err := json.Marshal(params)
		if err != nil {
			continue
		}

		var schema toolSchema
		schema.Type = "function"
		schema.Function.Name = tool.Name
		schema.Function.Description = tool.Description
		schema.Function.Parameters = raw
		out = append(out, schema)
	}
	return out
}

// decodeResponse extracts text and the first tool request from a response.
func decodeResponse(chatResp *chatResponse) (*driven.ModelResponse, error) {
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned", domain.ErrModelUnavailable)
	}

	msg := chatResp.Choices[0].Message
	var toolCall *driven.ToolCall
	if len(msg.ToolCalls) > 0 {
		ref := msg.ToolCalls[0]
		args := make(map[string]any)
		if ref.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(ref.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("%w: decoding tool arguments: %v", domain.ErrModelUnavailable, err)
			}
		}
		toolCall = &driven.ToolCall{
			ID:        ref.ID,
			Name:      ref.Function.Name,
			Arguments: args,
		}
	}

	return &driven.ModelResponse{
		Text:     msg.Content,
		ToolCall: toolCall,
	}, nil
}

// Ping validates the service is reachable by checking the /models endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API returned status %d", resp.StatusCode)
	}
	return nil
}

// ModelName returns the name of the model being used.
func (c *Client) ModelName() string {
	return c.model
}

// Close releases resources.
func (c *Client) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
