package slackevents

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/domain"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

// fakeResponder records invocations and replays a fixed turn.
type fakeResponder struct {
	mu    sync.Mutex
	asks  []driving.AskRequest
	turn  domain.ConversationTurn
	block chan struct{}
}

var _ driving.Responder = (*fakeResponder)(nil)

func (f *fakeResponder) Respond(_ context.Context, req driving.AskRequest) (*domain.ConversationTurn, error) {
	f.mu.Lock()
	f.asks = append(f.asks, req)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	turn := f.turn
	return &turn, nil
}

func (f *fakeResponder) requests() []driving.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]driving.AskRequest(nil), f.asks...)
}

type fakeChat struct {
	mu      sync.Mutex
	posts   []string
	replies []string
}

var _ driven.ChatClient = (*fakeChat)(nil)

func (c *fakeChat) PostMessage(_ context.Context, channelID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, channelID+": "+text)
	return nil
}

func (c *fakeChat) ReplyInThread(_ context.Context, channelID, threadTS, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, fmt.Sprintf("%s/%s: %s", channelID, threadTS, text))
	return nil
}

func (c *fakeChat) AddReaction(context.Context, string, string, string) error { return nil }

func (c *fakeChat) ThreadReplies(context.Context, string, string) ([]driven.ChatMessage, error) {
	return nil, nil
}

func (c *fakeChat) ChannelHistory(context.Context, string, int) ([]driven.ChatMessage, error) {
	return nil, nil
}

// sign produces a valid Slack request for the handler.
func signedRequest(t *testing.T, body string, tweaks ...func(*http.Request)) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

	for _, tweak := range tweaks {
		tweak(req)
	}
	return req
}

func mentionEvent(eventID, channel, text string) string {
	body, _ := json.Marshal(map[string]any{
		"type":     "event_callback",
		"event_id": eventID,
		"event": map[string]any{
			"type":    "app_mention",
			"channel": channel,
			"user":    "U123",
			"text":    text,
			"ts":      "1700000000.000100",
		},
	})
	return string(body)
}

func TestHandler_URLVerification(t *testing.T) {
	h := NewHandler(&fakeResponder{}, nil, testSecret)

	body := `{"type":"url_verification","challenge":"ch4ll3nge","token":"tok"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ch4ll3nge", resp["challenge"])
}

func TestHandler_RejectsBadSignature(t *testing.T) {
	h := NewHandler(&fakeResponder{}, nil, testSecret)

	body := mentionEvent("Ev1", "C123", "<@UBOT> hello")
	req := signedRequest(t, body, func(r *http.Request) {
		r.Header.Set("X-Slack-Signature", "v0=deadbeef")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_RejectsStaleTimestamp(t *testing.T) {
	h := NewHandler(&fakeResponder{}, nil, testSecret)

	body := mentionEvent("Ev1", "C123", "hello")
	old := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "v0:%s:%s", old, body)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", old)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_AppMentionDispatched(t *testing.T) {
	responder := &fakeResponder{turn: domain.ConversationTurn{Posted: true}}
	h := NewHandler(responder, nil, testSecret)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, mentionEvent("Ev1", "C123", "<@UBOT> when is standup?")))
	require.Equal(t, http.StatusOK, rec.Code)
	h.Wait()

	asks := responder.requests()
	require.Len(t, asks, 1)
	assert.Equal(t, "when is standup?", asks[0].Prompt, "the bot mention is stripped")
	assert.Equal(t, "C123", asks[0].ChannelID)
	assert.Equal(t, "1700000000.000100", asks[0].ThreadTS, "mentions are answered in a thread")
	assert.Equal(t, "C123:1700000000.000100", asks[0].ConversationID)
}

func TestHandler_DuplicateEventDropped(t *testing.T) {
	responder := &fakeResponder{turn: domain.ConversationTurn{Posted: true}}
	h := NewHandler(responder, nil, testSecret)

	body := mentionEvent("Ev-dup", "C123", "question")
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, signedRequest(t, body))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	h.Wait()

	assert.Len(t, responder.requests(), 1, "retried deliveries must not re-run the turn")
}

func TestHandler_RetryHeaderDropped(t *testing.T) {
	responder := &fakeResponder{}
	h := NewHandler(responder, nil, testSecret)

	req := signedRequest(t, mentionEvent("Ev2", "C123", "q"), func(r *http.Request) {
		r.Header.Set("X-Slack-Retry-Num", "1")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	h.Wait()

	assert.Empty(t, responder.requests())
}

func TestHandler_BotMessagesIgnored(t *testing.T) {
	responder := &fakeResponder{}
	h := NewHandler(responder, nil, testSecret)

	body, _ := json.Marshal(map[string]any{
		"type":     "event_callback",
		"event_id": "Ev3",
		"event": map[string]any{
			"type":    "app_mention",
			"channel": "C123",
			"bot_id":  "B999",
			"text":    "<@UBOT> echo",
			"ts":      "1.2",
		},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, string(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	h.Wait()

	assert.Empty(t, responder.requests())
}

func TestHandler_DirectMessageDispatched(t *testing.T) {
	responder := &fakeResponder{turn: domain.ConversationTurn{Posted: true}}
	h := NewHandler(responder, nil, testSecret)

	body, _ := json.Marshal(map[string]any{
		"type":     "event_callback",
		"event_id": "Ev4",
		"event": map[string]any{
			"type":         "message",
			"channel_type": "im",
			"channel":      "D777",
			"user":         "U123",
			"text":         "where are the runbooks?",
			"ts":           "1700000001.000100",
		},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, string(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	h.Wait()

	asks := responder.requests()
	require.Len(t, asks, 1)
	assert.Equal(t, "where are the runbooks?", asks[0].Prompt)
	assert.Equal(t, "D777", asks[0].ChannelID)
	assert.Empty(t, asks[0].ThreadTS, "direct messages are not forced into threads")
	assert.Equal(t, "D777", asks[0].ConversationID)
}

func TestHandler_ChannelMessageIgnored(t *testing.T) {
	responder := &fakeResponder{}
	h := NewHandler(responder, nil, testSecret)

	body, _ := json.Marshal(map[string]any{
		"type":     "event_callback",
		"event_id": "Ev5",
		"event": map[string]any{
			"type":         "message",
			"channel_type": "channel",
			"channel":      "C123",
			"user":         "U123",
			"text":         "chatter",
			"ts":           "1.2",
		},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, string(body)))
	h.Wait()

	assert.Empty(t, responder.requests())
}

func TestHandler_PostsUnpostedText(t *testing.T) {
	responder := &fakeResponder{turn: domain.ConversationTurn{Text: "The answer is 42."}}
	chat := &fakeChat{}
	h := NewHandler(responder, chat, testSecret)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, mentionEvent("Ev6", "C123", "<@UBOT> q")))
	require.Equal(t, http.StatusOK, rec.Code)
	h.Wait()

	require.Len(t, chat.replies, 1)
	assert.Equal(t, "C123/1700000000.000100: The answer is 42.", chat.replies[0])
	assert.Empty(t, chat.posts)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakeResponder{}, nil, testSecret)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStripMention(t *testing.T) {
	assert.Equal(t, "hello", stripMention("<@U0BOT> hello"))
	assert.Equal(t, "no mention", stripMention("no mention"))
	assert.Equal(t, "", stripMention("<@U0BOT>"))
	assert.Equal(t, "two parts", stripMention("  <@U0BOT>  two parts "))
}
