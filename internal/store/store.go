// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the session-wide conversation collection.
package store

import (
	"log"
	"sync"
	"time"

	"github.com/jeranaias/exachat/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the persisted portion of the collection. The transient flags
// (streaming, error) are deliberately not part of it.
type State struct {
	Conversations        []*model.Conversation `json:"conversations"`
	ActiveConversationID string                `json:"activeConversationId,omitempty"`
}

// Persister saves the collection state after each mutation.
type Persister interface {
	SaveState(State) error
}

// =============================================================================
// STORE
// =============================================================================

// Store is the single mutable owner of all conversation and message data.
// Consumers read via queries and mutate only through the operation set below;
// no other component holds a competing copy.
type Store struct {
	mu sync.Mutex

	// conversations is ordered most-recently-created first.
	conversations []*model.Conversation
	activeID      string

	streaming bool
	errMsg    string

	persister Persister
}

// New creates an empty store with no persistence.
func New() *Store {
	return &Store{}
}

// NewWithPersister creates an empty store that saves after every mutation
// of persisted fields.
func NewWithPersister(p Persister) *Store {
	return &Store{persister: p}
}

// Hydrate replaces the collection with previously persisted state.
// Transient flags are reset; a rehydrated session never starts mid-stream.
func (s *Store) Hydrate(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = state.Conversations
	if s.conversations == nil {
		s.conversations = make([]*model.Conversation, 0)
	}
	s.activeID = state.ActiveConversationID
	s.streaming = false
	s.errMsg = ""
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// CreateConversation allocates a new conversation, inserts it at the front
// of the collection, makes it active, and returns its id.
func (s *Store) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation()
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID

	s.persistLocked()
	return conv.ID
}

// DeleteConversation removes the conversation. If it was active, the first
// remaining conversation becomes active, or none if the collection is empty.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.conversations[:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept

	if s.activeID == id {
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		} else {
			s.activeID = ""
		}
	}

	s.persistLocked()
}

// SetActiveConversation switches the active conversation. Passing an id that
// does not exist is a caller error and is not guarded against.
func (s *Store) SetActiveConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = id
	s.persistLocked()
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AddMessage assigns a fresh id and timestamp to the message, appends it to
// the conversation, and returns the new id. Returns "" if the conversation
// does not exist.
func (s *Store) AddMessage(conversationID string, msg model.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(conversationID)
	if conv == nil {
		return ""
	}

	fresh := model.NewMessage(msg.Role, msg.Content)
	fresh.ReasoningContent = msg.ReasoningContent
	fresh.IsStreaming = msg.IsStreaming
	conv.AddMessage(fresh)

	s.persistLocked()
	return fresh.ID
}

// UpdateMessage merges the given fields into the message in place and
// refreshes the conversation's UpdatedAt. No-op if the id pair does not
// resolve.
func (s *Store) UpdateMessage(conversationID, messageID string, update model.MessageUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(conversationID)
	if conv == nil {
		return
	}
	msg := conv.GetMessageByID(messageID)
	if msg == nil {
		return
	}

	msg.Apply(update)
	conv.UpdatedAt = time.Now()

	s.persistLocked()
}

// =============================================================================
// TRANSIENT FLAGS
// =============================================================================

// SetStreaming sets the collection-wide streaming flag. Transient; never
// persisted.
func (s *Store) SetStreaming(streaming bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = streaming
}

// SetError records a user-facing error message. Transient; never persisted.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// ClearError clears the error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// =============================================================================
// QUERIES
// =============================================================================

// ActiveConversationID returns the active conversation id, or "".
func (s *Store) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// ActiveConversation returns the active conversation, or nil.
func (s *Store) ActiveConversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.activeID)
}

// Conversation returns the conversation with the given id, or nil.
func (s *Store) Conversation(id string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// Conversations returns the collection in most-recently-created-first order.
func (s *Store) Conversations() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// IsStreaming reports whether any request is in flight.
func (s *Store) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Err returns the current user-facing error message, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// =============================================================================
// INTERNALS
// =============================================================================

// findLocked returns the conversation with the given id. Caller holds mu.
func (s *Store) findLocked(id string) *model.Conversation {
	if id == "" {
		return nil
	}
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// persistLocked saves the persisted fields after a mutation. Caller holds mu.
// Persistence failure is logged, not propagated; a failed save must not fail
// the in-memory mutation.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	state := State{
		Conversations:        s.conversations,
		ActiveConversationID: s.activeID,
	}
	if err := s.persister.SaveState(state); err != nil {
		log.Printf("STORE_PERSIST_FAILED | err=%v", err)
	}
}
