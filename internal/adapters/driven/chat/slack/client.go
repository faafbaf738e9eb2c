// Package slack provides a chat client adapter using the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ChatClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://slack.com/api"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Slack client.
type Config struct {
	// BotToken is the xoxb- bot token (required).
	BotToken string

	// BaseURL is the API base URL (default: https://slack.com/api).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client calls the Slack Web API over plain HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// apiResponse covers the fields shared by all Web API replies.
type apiResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		User  string `json:"user"`
		BotID string `json:"bot_id"`
		Text  string `json:"text"`
		TS    string `json:"ts"`
	} `json:"messages"`
}

// NewClient creates a new Slack Web API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		token:   cfg.BotToken,
	}, nil
}

// PostMessage sends a message to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	if channelID == "" || text == "" {
		return domain.ErrInvalidInput
	}

	_, err := c.callJSON(ctx, "chat.postMessage", map[string]any{
		"channel": channelID,
		"text":    text,
	})
	return err
}

// ReplyInThread sends a message into an existing thread.
func (c *Client) ReplyInThread(ctx context.Context, channelID, threadTS, text string) error {
	if channelID == "" || threadTS == "" || text == "" {
		return domain.ErrInvalidInput
	}

	_, err := c.callJSON(ctx, "chat.postMessage", map[string]any{
		"channel":   channelID,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

// AddReaction adds an emoji reaction to a message. The reaction name is
// passed without colons ("thumbsup", not ":thumbsup:").
func (c *Client) AddReaction(ctx context.Context, channelID, timestamp, reaction string) error {
	if channelID == "" || timestamp == "" || reaction == "" {
		return domain.ErrInvalidInput
	}

	_, err := c.callJSON(ctx, "reactions.add", map[string]any{
		"channel":   channelID,
		"timestamp": timestamp,
		"name":      reaction,
	})
	// Reacting twice with the same emoji is not a failure worth surfacing.
	if err != nil && isSlackError(err, "already_reacted") {
		return nil
	}
	return err
}

// ThreadReplies returns the messages of a thread, oldest first.
func (c *Client) ThreadReplies(ctx context.Context, channelID, threadTS string) ([]driven.ChatMessage, error) {
	if channelID == "" || threadTS == "" {
		return nil, domain.ErrInvalidInput
	}

	resp, err := c.callGet(ctx, "conversations.replies", url.Values{
		"channel": {channelID},
		"ts":      {threadTS},
	})
	if err != nil {
		return nil, err
	}
	return convertMessages(resp), nil
}

// ChannelHistory returns up to limit recent channel messages, newest first.
func (c *Client) ChannelHistory(ctx context.Context, channelID string, limit int) ([]driven.ChatMessage, error) {
	if channelID == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 10
	}

	resp, err := c.callGet(ctx, "conversations.history", url.Values{
		"channel": {channelID},
		"limit":   {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	return convertMessages(resp), nil
}

// callJSON posts a JSON body to a Web API method.
func (c *Client) callJSON(ctx context.Context, method string, payload map[string]any) (*apiResponse, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+method,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method)
}

// callGet issues a GET request to a Web API method.
func (c *Client) callGet(ctx context.Context, method string, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/"+method+"?"+params.Encode(),
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (*apiResponse, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("slack %s: reading response: %w", method, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: slack %s status 429", domain.ErrRateLimited, method)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s: status %d: %s", method, resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("slack %s: decoding response: %w", method, err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("slack %s: %s", method, apiResp.Error)
	}

	return &apiResp, nil
}

// convertMessages maps wire messages onto the chat port type.
func convertMessages(resp *apiResponse) []driven.ChatMessage {
	out := make([]driven.ChatMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, driven.ChatMessage{
			UserID:    m.User,
			Text:      m.Text,
			Timestamp: m.TS,
			Bot:       m.BotID != "",
		})
	}
	return out
}

// isSlackError reports whether err carries the given Slack error code.
func isSlackError(err error, code string) bool {
	return err != nil && strings.Contains(err.Error(), code)
}
