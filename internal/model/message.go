// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// While IsStreaming is true, Content and ReasoningContent only ever grow:
// updates replace them with the full accumulated total so far, never with a
// partial in-place edit that could reorder text.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	// ReasoningContent holds the model's extracted reasoning trace, when the
	// upstream provider emits one. Empty for user and system messages.
	ReasoningContent string `json:"reasoning_content,omitempty"`

	// IsStreaming marks the assistant placeholder currently being written to
	// by an active request. Transient; excluded from persistence.
	IsStreaming bool `json:"-"`
}

// NewMessage creates a new message with a generated ID and timestamp.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantPlaceholder creates the empty assistant message that an active
// stream mutates in place as deltas arrive.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// PARTIAL UPDATES
// =============================================================================

// MessageUpdate holds partial fields to merge into an existing message.
// Nil fields are left untouched.
type MessageUpdate struct {
	Content          *string
	ReasoningContent *string
	IsStreaming      *bool
}

// Apply merges the non-nil fields of the update into the message.
func (m *Message) Apply(u MessageUpdate) {
	if u.Content != nil {
		m.Content = *u.Content
	}
	if u.ReasoningContent != nil {
		m.ReasoningContent = *u.ReasoningContent
	}
	if u.IsStreaming != nil {
		m.IsStreaming = *u.IsStreaming
	}
}

// StringPtr returns a pointer to s, for building MessageUpdate values.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b, for building MessageUpdate values.
func BoolPtr(b bool) *bool {
	return &b
}
