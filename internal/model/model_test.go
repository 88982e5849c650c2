// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"testing"

	"github.com/jeranaias/exachat/internal/util"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{Role("tool"), false},
		{Role(""), false},
	}

	for _, tc := range tests {
		if got := tc.role.Valid(); got != tc.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tc.role, got, tc.want)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.ID == "" {
		t.Error("ID should be generated")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if msg.IsStreaming {
		t.Error("user messages should not be streaming")
	}
}

func TestNewAssistantPlaceholder(t *testing.T) {
	msg := NewAssistantPlaceholder()

	if msg.Content != "" {
		t.Errorf("Content = %q, want empty", msg.Content)
	}
	if !msg.IsStreaming {
		t.Error("placeholder should start streaming")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
}

func TestMessage_Apply(t *testing.T) {
	msg := NewAssistantPlaceholder()

	msg.Apply(MessageUpdate{
		Content:          StringPtr("Hello"),
		ReasoningContent: StringPtr("thinking"),
	})
	if msg.Content != "Hello" || msg.ReasoningContent != "thinking" {
		t.Errorf("after apply: content=%q reasoning=%q", msg.Content, msg.ReasoningContent)
	}
	if !msg.IsStreaming {
		t.Error("nil IsStreaming field should leave streaming flag untouched")
	}

	msg.Apply(MessageUpdate{IsStreaming: BoolPtr(false)})
	if msg.IsStreaming {
		t.Error("IsStreaming should be cleared")
	}
	if msg.Content != "Hello" {
		t.Errorf("Content = %q, partial update should not clear it", msg.Content)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()

	if conv.ID == "" {
		t.Error("ID should be generated")
	}
	if conv.Title != util.DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, util.DefaultTitle)
	}
	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()

	conv.AddMessage(NewMessage(RoleSystem, "be helpful"))
	if conv.Title != util.DefaultTitle {
		t.Errorf("system message should not set title, got %q", conv.Title)
	}

	conv.AddMessage(NewUserMessage("**Bold** question"))
	if conv.Title != "Bold question" {
		t.Errorf("Title = %q, want %q", conv.Title, "Bold question")
	}

	conv.AddMessage(NewUserMessage("a completely different question"))
	if conv.Title != "Bold question" {
		t.Errorf("second user message changed title to %q", conv.Title)
	}
}

func TestConversation_AddMessageRefreshesUpdatedAt(t *testing.T) {
	conv := NewConversation()
	before := conv.UpdatedAt

	conv.AddMessage(NewUserMessage("hi"))
	if conv.UpdatedAt.Before(before) {
		t.Error("UpdatedAt should not move backwards")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", conv.MessageCount())
	}
}

func TestConversation_GetMessageByID(t *testing.T) {
	conv := NewConversation()
	msg := NewUserMessage("hi")
	conv.AddMessage(msg)

	if got := conv.GetMessageByID(msg.ID); got != msg {
		t.Error("GetMessageByID should return the appended message")
	}
	if got := conv.GetMessageByID("missing"); got != nil {
		t.Errorf("GetMessageByID(missing) = %v, want nil", got)
	}
}

func TestConversation_History(t *testing.T) {
	conv := NewConversation()
	conv.AddMessage(NewMessage(RoleSystem, "directive"))
	user := NewUserMessage("question")
	conv.AddMessage(user)
	placeholder := NewAssistantPlaceholder()
	conv.AddMessage(placeholder)

	history := conv.History(placeholder.ID)

	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if history[0].ID != user.ID {
		t.Errorf("history[0] = %q, want the user message", history[0].ID)
	}
}
