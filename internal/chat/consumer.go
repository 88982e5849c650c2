// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives a conversation turn against the relay and feeds the
// streamed response into the store.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/jeranaias/exachat/internal/model"
	"github.com/jeranaias/exachat/internal/relay"
	"github.com/jeranaias/exachat/internal/sse"
	"github.com/jeranaias/exachat/internal/store"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// NoticeCancelled replaces an empty assistant message when the user
	// aborts before any content arrived.
	NoticeCancelled = "Message generation was cancelled."

	// NoticeError replaces the assistant message when the stream fails.
	NoticeError = "An error occurred while generating the response. Please try again."

	readChunkSize = 4096
)

// ErrStreamInFlight is returned when SendMessage is called while a previous
// turn is still streaming.
var ErrStreamInFlight = errors.New("a response is already being generated")

// =============================================================================
// CONSUMER
// =============================================================================

// framePayload is the decoded shape of one relay stream frame.
type framePayload struct {
	ID               string  `json:"id"`
	Content          string  `json:"content"`
	ReasoningContent string  `json:"reasoning_content"`
	FinishReason     *string `json:"finish_reason"`
	Error            string  `json:"error"`
}

// Consumer sends user messages to the relay and applies the streamed
// assistant response to the store, one accumulated update per delta.
type Consumer struct {
	store      *store.Store
	relayURL   string
	httpClient *http.Client

	// OnDelta, when set, is called with each content and reasoning delta as
	// it is applied. Used for live terminal output.
	OnDelta func(content, reasoning string)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewConsumer creates a consumer that talks to the relay at relayURL.
func NewConsumer(s *store.Store, relayURL string) *Consumer {
	return &Consumer{
		store:    s,
		relayURL: relayURL,
		// No timeout: responses stream until the model finishes. The
		// per-request context carries cancellation.
		httpClient: &http.Client{},
	}
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage runs one full conversation turn: it records the user message,
// creates the assistant placeholder, streams the response into it, and
// finalizes it on completion, cancellation, or failure. Blocks until the
// turn is over.
func (c *Consumer) SendMessage(ctx context.Context, content string) error {
	if c.store.IsStreaming() {
		return ErrStreamInFlight
	}
	c.store.ClearError()

	conversationID := c.store.ActiveConversationID()
	if conversationID == "" {
		conversationID = c.store.CreateConversation()
	}

	c.store.AddMessage(conversationID, *model.NewUserMessage(content))
	placeholderID := c.store.AddMessage(conversationID, *model.NewAssistantPlaceholder())
	c.store.SetStreaming(true)

	streamCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	// The turn always ends with the streaming flags cleared, whatever path
	// it took to get there.
	defer func() {
		c.store.SetStreaming(false)
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	accumulated, err := c.streamTurn(streamCtx, conversationID, placeholderID)
	switch {
	case err == nil:
		c.store.UpdateMessage(conversationID, placeholderID, model.MessageUpdate{
			IsStreaming: model.BoolPtr(false),
		})
		return nil

	case errors.Is(err, context.Canceled):
		final := accumulated
		if final == "" {
			final = NoticeCancelled
		}
		c.store.UpdateMessage(conversationID, placeholderID, model.MessageUpdate{
			Content:     model.StringPtr(final),
			IsStreaming: model.BoolPtr(false),
		})
		return nil

	default:
		log.Printf("STREAM_FAILED | err=%v", err)
		c.store.SetError(err.Error())
		c.store.UpdateMessage(conversationID, placeholderID, model.MessageUpdate{
			Content:     model.StringPtr(NoticeError),
			IsStreaming: model.BoolPtr(false),
		})
		return err
	}
}

// Abort cancels the in-flight stream, if any. Safe to call when idle.
func (c *Consumer) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// =============================================================================
// STREAM HANDLING
// =============================================================================

// streamTurn opens the relay stream and applies every frame to the
// placeholder. Returns the accumulated content so the cancellation path can
// keep a partial response.
func (c *Consumer) streamTurn(ctx context.Context, conversationID, placeholderID string) (string, error) {
	body, err := c.openStream(ctx, conversationID, placeholderID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var content, reasoning string
	parser := sse.NewParser()
	buf := make([]byte, readChunkSize)

	apply := func(payload string) error {
		if sse.IsDone(payload) {
			return nil
		}
		var frame framePayload
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			log.Printf("FRAME_SKIPPED | err=%v", err)
			return nil
		}
		if frame.Error != "" {
			return errors.New(frame.Error)
		}
		if frame.Content == "" && frame.ReasoningContent == "" {
			return nil
		}

		content += frame.Content
		reasoning += frame.ReasoningContent

		update := model.MessageUpdate{
			Content:     model.StringPtr(content),
			IsStreaming: model.BoolPtr(true),
		}
		if reasoning != "" {
			update.ReasoningContent = model.StringPtr(reasoning)
		}
		c.store.UpdateMessage(conversationID, placeholderID, update)

		if c.OnDelta != nil {
			c.OnDelta(frame.Content, frame.ReasoningContent)
		}
		return nil
	}

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, payload := range parser.Feed(buf[:n]) {
				if err := apply(payload); err != nil {
					return content, err
				}
			}
		}
		if readErr != nil {
			for _, payload := range parser.Flush() {
				if err := apply(payload); err != nil {
					return content, err
				}
			}
			if errors.Is(readErr, io.EOF) {
				return content, nil
			}
			if ctx.Err() != nil {
				return content, ctx.Err()
			}
			return content, fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

// openStream posts the conversation history and returns the stream body.
func (c *Consumer) openStream(ctx context.Context, conversationID, placeholderID string) (io.ReadCloser, error) {
	conv := c.store.Conversation(conversationID)
	if conv == nil {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}

	history := conv.History(placeholderID)
	req := relay.ChatRequest{Messages: make([]relay.ChatMessage, 0, len(history))}
	for _, msg := range history {
		req.Messages = append(req.Messages, relay.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.relayURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("connecting to relay: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			return nil, fmt.Errorf("relay error (status %d): %s", resp.StatusCode, errBody.Error)
		}
		return nil, fmt.Errorf("relay error: status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
