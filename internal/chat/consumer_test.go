// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives a conversation turn against the relay and feeds the
// streamed response into the store.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeranaias/exachat/internal/model"
	"github.com/jeranaias/exachat/internal/relay"
	"github.com/jeranaias/exachat/internal/store"
)

// sseFrame writes one data frame and flushes it.
func sseFrame(w http.ResponseWriter, v any) {
	data, _ := json.Marshal(v)
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// newRelayStub serves the given handler on /api/chat.
func newRelayStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func assistantMessage(t *testing.T, s *store.Store) *model.Message {
	t.Helper()
	conv := s.ActiveConversation()
	if conv == nil {
		t.Fatal("no active conversation")
	}
	msg := conv.GetLastMessage()
	if msg == nil || msg.Role != model.RoleAssistant {
		t.Fatalf("last message = %+v, want assistant", msg)
	}
	return msg
}

// =============================================================================
// HAPPY PATH TESTS
// =============================================================================

func TestConsumer_SendMessage_AccumulatesStream(t *testing.T) {
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sseFrame(w, map[string]any{"id": "c1", "reasoning_content": "hmm "})
		sseFrame(w, map[string]any{"id": "c1", "reasoning_content": "ok"})
		sseFrame(w, map[string]any{"id": "c1", "content": "Hel"})
		sseFrame(w, map[string]any{"id": "c1", "content": "lo", "finish_reason": "stop"})
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	s := store.New()
	c := NewConsumer(s, srv.URL)

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	msg := assistantMessage(t, s)
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want accumulated %q", msg.Content, "Hello")
	}
	if msg.ReasoningContent != "hmm ok" {
		t.Errorf("ReasoningContent = %q, want %q", msg.ReasoningContent, "hmm ok")
	}
	if msg.IsStreaming {
		t.Error("placeholder should be finalized")
	}
	if s.IsStreaming() {
		t.Error("streaming flag should be cleared")
	}
	if s.Err() != "" {
		t.Errorf("Err = %q, want empty", s.Err())
	}
}

func TestConsumer_SendMessage_CreatesConversationWhenNoneActive(t *testing.T) {
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	s := store.New()
	c := NewConsumer(s, srv.URL)

	if err := c.SendMessage(context.Background(), "first"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	conv := s.ActiveConversation()
	if conv == nil {
		t.Fatal("a conversation should have been created")
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want user + assistant", conv.MessageCount())
	}
	if conv.Title != "first" {
		t.Errorf("Title = %q, want derived from user message", conv.Title)
	}
}

func TestConsumer_SendMessage_SendsFilteredHistory(t *testing.T) {
	var got relay.ChatRequest
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	s := store.New()
	convID := s.CreateConversation()
	s.AddMessage(convID, *model.NewMessage(model.RoleSystem, "directive"))
	s.AddMessage(convID, *model.NewUserMessage("earlier question"))
	s.AddMessage(convID, *model.NewMessage(model.RoleAssistant, "earlier answer"))

	c := NewConsumer(s, srv.URL)
	if err := c.SendMessage(context.Background(), "followup"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	want := []relay.ChatMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "followup"},
	}
	if len(got.Messages) != len(want) {
		t.Fatalf("sent %d messages, want %d: %+v", len(got.Messages), len(want), got.Messages)
	}
	for i, w := range want {
		if got.Messages[i] != w {
			t.Errorf("messages[%d] = %+v, want %+v", i, got.Messages[i], w)
		}
	}
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestConsumer_Abort_KeepsPartialContent(t *testing.T) {
	release := make(chan struct{})
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sseFrame(w, map[string]any{"id": "c1", "content": "partial answer"})
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	s := store.New()
	c := NewConsumer(s, srv.URL)

	delivered := make(chan struct{})
	var once bool
	c.OnDelta = func(content, reasoning string) {
		if !once {
			once = true
			close(delivered)
		}
	}

	go func() {
		<-delivered
		c.Abort()
	}()

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage() after abort error = %v, want nil", err)
	}

	msg := assistantMessage(t, s)
	if msg.Content != "partial answer" {
		t.Errorf("Content = %q, want partial kept", msg.Content)
	}
	if msg.IsStreaming {
		t.Error("aborted placeholder should be finalized")
	}
	if s.Err() != "" {
		t.Errorf("Err = %q, cancellation is not an error", s.Err())
	}
}

func TestConsumer_Abort_BeforeContentUsesNotice(t *testing.T) {
	started := make(chan struct{})
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		close(started)
		<-r.Context().Done()
	})

	s := store.New()
	c := NewConsumer(s, srv.URL)

	go func() {
		<-started
		time.Sleep(10 * time.Millisecond)
		c.Abort()
	}()

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v, want nil", err)
	}

	msg := assistantMessage(t, s)
	if msg.Content != NoticeCancelled {
		t.Errorf("Content = %q, want %q", msg.Content, NoticeCancelled)
	}
}

func TestConsumer_Abort_WhenIdleIsNoOp(t *testing.T) {
	c := NewConsumer(store.New(), "http://127.0.0.1:1")
	c.Abort()
}

// =============================================================================
// ERROR PATH TESTS
// =============================================================================

func TestConsumer_SendMessage_ErrorFrame(t *testing.T) {
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		sseFrame(w, map[string]any{"id": "c1", "content": "some"})
		sseFrame(w, map[string]any{"error": "Streaming failed"})
	})

	s := store.New()
	c := NewConsumer(s, srv.URL)

	err := c.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error from in-band error frame")
	}

	msg := assistantMessage(t, s)
	if msg.Content != NoticeError {
		t.Errorf("Content = %q, want %q", msg.Content, NoticeError)
	}
	if msg.IsStreaming {
		t.Error("placeholder should be finalized")
	}
	if s.Err() == "" {
		t.Error("store error should be set")
	}
	if s.IsStreaming() {
		t.Error("streaming flag should be cleared")
	}
}

func TestConsumer_SendMessage_RelayRejection(t *testing.T) {
	srv := newRelayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid token"}`)
	})

	s := store.New()
	c := NewConsumer(s, srv.URL)

	err := c.SendMessage(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for rejected request")
	}

	msg := assistantMessage(t, s)
	if msg.Content != NoticeError {
		t.Errorf("Content = %q, want %q", msg.Content, NoticeError)
	}
	if s.Err() == "" {
		t.Error("store error should be set")
	}
}

func TestConsumer_SendMessage_RefusesConcurrentTurn(t *testing.T) {
	s := store.New()
	s.SetStreaming(true)

	c := NewConsumer(s, "http://127.0.0.1:1")
	if err := c.SendMessage(context.Background(), "hi"); err != ErrStreamInFlight {
		t.Errorf("error = %v, want ErrStreamInFlight", err)
	}
}
