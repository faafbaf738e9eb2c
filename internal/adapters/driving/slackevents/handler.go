// Package slackevents provides the HTTP endpoint for the Slack Events
// API: URL verification, request signing checks, event deduplication and
// dispatch of mentions and direct messages into the responder.
package slackevents

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driven"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/core/ports/driving"
	"github.com/swiss-ai/dsl25-7-center-bot/internal/logger"
)

// maxBodySize bounds an event payload.
const maxBodySize = 1 << 20

// signatureSkew is the maximum accepted request timestamp age, guarding
// against replays.
const signatureSkew = 5 * time.Minute

// dedupWindow is how long processed event IDs are remembered. Slack
// retries delivery for up to an hour.
const dedupWindow = time.Hour

// Handler serves the Slack Events API endpoint.
type Handler struct {
	responder     driving.Responder
	chat          driven.ChatClient
	signingSecret string
	now           func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time

	// wg tracks in-flight event processing for clean shutdown.
	wg sync.WaitGroup
}

// NewHandler creates the events handler. chat is used to deliver the
// answer when a turn ends with plain text instead of a posting tool.
func NewHandler(responder driving.Responder, chat driven.ChatClient, signingSecret string) *Handler {
	return &Handler{
		responder:     responder,
		chat:          chat,
		signingSecret: signingSecret,
		now:           time.Now,
		seen:          make(map[string]time.Time),
	}
}

// eventEnvelope is the outer Events API payload.
type eventEnvelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	EventID   string     `json:"event_id"`
	Event     innerEvent `json:"event"`
}

// innerEvent is the event body for the types this bot handles.
type innerEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	ChannelType string `json:"channel_type"`
	Channel     string `json:"channel"`
	User        string `json:"user"`
	BotID       string `json:"bot_id"`
	Text        string `json:"text"`
	TS          string `json:"ts"`
	ThreadTS    string `json:"thread_ts"`
}

// ServeHTTP handles POST /slack/events.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(r.Header, body) {
		http.Error(w, "invalid request signature", http.StatusForbidden)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// URL verification handshake: echo the challenge.
	if envelope.Type == "url_verification" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": envelope.Challenge})
		return
	}

	// Slack retries on slow responses; acknowledge first, process in the
	// background. Retried deliveries are dropped by event_id.
	if envelope.Type == "event_callback" && h.shouldProcess(&envelope, r.Header) {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.processEvent(envelope.Event)
		}()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// Wait blocks until all in-flight events are processed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// verifySignature checks the Slack request signature: HMAC-SHA256 of
// "v0:{timestamp}:{body}" with the signing secret, constant-time
// compared against the X-Slack-Signature header.
func (h *Handler) verifySignature(header http.Header, body []byte) bool {
	if h.signingSecret == "" {
		return false
	}

	timestamp := header.Get("X-Slack-Request-Timestamp")
	signature := header.Get("X-Slack-Signature")
	if timestamp == "" || signature == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := h.now().Sub(time.Unix(ts, 0))
	if age > signatureSkew || age < -signatureSkew {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// shouldProcess filters out retries, duplicates, bot echoes and event
// types this bot does not handle.
func (h *Handler) shouldProcess(envelope *eventEnvelope, header http.Header) bool {
	// Retried deliveries carry a retry header; the first delivery was
	// already accepted.
	if header.Get("X-Slack-Retry-Num") != "" {
		return false
	}

	event := envelope.Event
	if event.BotID != "" {
		return false
	}
	switch event.Type {
	case "app_mention":
	case "message":
		// Only direct messages; channel traffic reaches the bot through
		// mentions.
		if event.Subtype != "" || event.ChannelType != "im" {
			return false
		}
	default:
		return false
	}

	return h.markSeen(envelope.EventID)
}

// markSeen records an event ID, reporting whether it was new.
func (h *Handler) markSeen(eventID string) bool {
	if eventID == "" {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for id, at := range h.seen {
		if now.Sub(at) > dedupWindow {
			delete(h.seen, id)
		}
	}
	if _, dup := h.seen[eventID]; dup {
		return false
	}
	h.seen[eventID] = now
	return true
}

// processEvent routes one accepted event into the responder.
func (h *Handler) processEvent(event innerEvent) {
	prompt := stripMention(event.Text)
	if prompt == "" {
		return
	}

	threadTS := event.ThreadTS
	if threadTS == "" && event.Type == "app_mention" {
		// Mentions are answered in a thread on the triggering message.
		threadTS = event.TS
	}

	conversationID := event.Channel
	if threadTS != "" {
		conversationID = event.Channel + ":" + threadTS
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	turn, err := h.responder.Respond(ctx, driving.AskRequest{
		Prompt:         prompt,
		ChannelID:      event.Channel,
		ThreadTS:       threadTS,
		ConversationID: conversationID,
	})
	if err != nil {
		logger.Error("Responding to Slack event failed: %v", err)
		return
	}

	// The model may answer in plain text instead of calling a posting
	// tool; the user still gets the reply.
	if !turn.Posted && turn.Text != "" && h.chat != nil {
		var postErr error
		if threadTS != "" {
			postErr = h.chat.ReplyInThread(ctx, event.Channel, threadTS, turn.Text)
		} else {
			postErr = h.chat.PostMessage(ctx, event.Channel, turn.Text)
		}
		if postErr != nil {
			logger.Error("Posting answer to channel %s failed: %v", event.Channel, postErr)
		}
	}
}

// stripMention removes a leading bot mention from the message text.
func stripMention(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "<@") {
		if end := strings.Index(text, ">"); end != -1 {
			text = strings.TrimSpace(text[end+1:])
		}
	}
	return text
}
