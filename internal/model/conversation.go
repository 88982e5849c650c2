// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/exachat/internal/util"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat conversation with its message history.
//
// Messages are append-only and chronological. The title is derived from the
// first user message the moment it is appended and never changes afterwards.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewConversation creates an empty conversation with the default title.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		Title:     util.DefaultTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and refreshes UpdatedAt. If this is the
// first user message, the conversation title is derived from its content.
func (c *Conversation) AddMessage(msg *Message) {
	if msg.Role == RoleUser && !c.hasUserMessage() {
		c.Title = util.GenerateConversationTitle(msg.Content)
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// GetMessageByID returns a message by its ID, or nil if absent.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// hasUserMessage reports whether any user message has been appended yet.
func (c *Conversation) hasUserMessage() bool {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return true
		}
	}
	return false
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns the role/content pairs to send upstream, excluding
// system-role entries and the message identified by excludeID (the
// not-yet-populated assistant placeholder).
func (c *Conversation) History(excludeID string) []*Message {
	history := make([]*Message, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem || msg.ID == excludeID {
			continue
		}
		history = append(history, msg)
	}
	return history
}
