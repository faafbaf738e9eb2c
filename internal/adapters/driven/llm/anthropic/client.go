// Package anthropic provides a tool-calling model client using the Anthropic API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ModelClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 4000

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the response length (default: 4000).
	MaxTokens int
}

// Client conducts tool-calling conversations against the Anthropic
// /v1/messages endpoint.
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// contentBlock is one element of a message's content array. Exactly one
// of the typed fields is populated, selected by Type.
type contentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// apiMessage is the Anthropic message format.
type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// toolSchema is the Anthropic tool definition format.
type toolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema inputSchema `json:"input_schema"`
}

type inputSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]propertyDesc `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

type propertyDesc struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model     string       `json:"model"`
	Messages  []apiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Tools     []toolSchema `json:"tools,omitempty"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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
// round; additional tool_use blocks in a response are ignored.
func (c *Client) Converse(
	ctx context.Context,
	messages []domain.Message,
	tools []domain.ToolSpec,
) (*driven.ModelResponse, error) {
	systemPrompt, apiMessages, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}

	reqBody := messagesRequest{
		Model:     c.model,
		Messages:  apiMessages,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Tools:     convertTools(tools),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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
		return nil, fmt.Errorf("%w: anthropic status 429", domain.ErrRateLimited)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrModelUnavailable, err)
	}

	if msgResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelUnavailable, msgResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrModelUnavailable, resp.StatusCode, string(body))
	}

	return decodeResponse(&msgResp)
}

// convertMessages maps the domain history onto the wire format. System
// messages are lifted into the top-level system prompt.
func convertMessages(messages []domain.Message) (string, []apiMessage, error) {
	var systemParts []string
	var out []apiMessage

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			systemParts = append(systemParts, msg.Content)

		case domain.RoleUser:
			out = append(out, apiMessage{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})

		case domain.RoleAssistant:
			var blocks []contentBlock
			if msg.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
			}
			if msg.ToolName != "" {
				input := json.RawMessage(msg.ToolArgs)
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    msg.ToolCallID,
					Name:  msg.ToolName,
					Input: input,
				})
			}
			if len(blocks) == 0 {
				blocks = []contentBlock{{Type: "text", Text: ""}}
			}
			out = append(out, apiMessage{Role: "assistant", Content: blocks})

		case domain.RoleTool:
			// Tool results travel back as user messages.
			out = append(out, apiMessage{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})

		default:
			return "", nil, fmt.Errorf("%w: unknown message role %q", domain.ErrInvalidInput, msg.Role)
		}
	}

	return strings.Join(systemParts, "\n\n"), out, nil
}

// convertTools maps tool specs onto the Anthropic tool schema.
func convertTools(tools []domain.ToolSpec) []toolSchema {
	if len(tools) == 0 {
		return nil
	}

	out := make([]toolSchema, 0, len(tools))
	for _, tool := range tools {
		schema := inputSchema{
			Type:       "object",
			Properties: make(map[string]propertyDesc, len(tool.Parameters)),
		}
		for _, param := range tool.Parameters {
			schema.Properties[param.Name] = propertyDesc{
				Type:        param.Type,
				Description: param.Description,
				Enum:        param.Enum,
			}
			if param.Required {
				schema.Required = append(schema.Required, param.Name)
			}
		}
		out = append(out, toolSchema{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return out
}

// decodeResponse extracts text and the first tool request from a response.
func decodeResponse(msgResp *messagesResponse) (*driven.ModelResponse, error) {
	if len(msgResp.Content) == 0 {
		return nil, fmt.Errorf("%w: no response content returned", domain.ErrModelUnavailable)
	}

	var text strings.Builder
	var toolCall *driven.ToolCall

	for _, block := range msgResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if toolCall != nil {
				continue
			}
			args := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, fmt.Errorf("%w: decoding tool input: %v", domain.ErrModelUnavailable, err)
				}
			}
			toolCall = &driven.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			}
		}
	}

	return &driven.ModelResponse{
		Text:     text.String(),
		ToolCall: toolCall,
	}, nil
}

// Ping validates the service is reachable by checking the /v1/models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
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
