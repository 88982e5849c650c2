// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the session-wide conversation collection.
package store

import (
	"errors"
	"testing"

	"github.com/jeranaias/exachat/internal/model"
)

// recordingPersister captures every saved state.
type recordingPersister struct {
	saves []State
	err   error
}

func (p *recordingPersister) SaveState(s State) error {
	p.saves = append(p.saves, s)
	return p.err
}

// =============================================================================
// CONVERSATION OPERATION TESTS
// =============================================================================

func TestStore_CreateConversation(t *testing.T) {
	s := New()

	first := s.CreateConversation()
	second := s.CreateConversation()

	if s.ActiveConversationID() != second {
		t.Errorf("active = %q, want newest %q", s.ActiveConversationID(), second)
	}

	convs := s.Conversations()
	if len(convs) != 2 {
		t.Fatalf("len(Conversations) = %d, want 2", len(convs))
	}
	if convs[0].ID != second || convs[1].ID != first {
		t.Error("conversations should be ordered newest first")
	}
}

func TestStore_DeleteConversation_ActiveFallback(t *testing.T) {
	s := New()
	older := s.CreateConversation()
	newer := s.CreateConversation()

	s.DeleteConversation(newer)
	if s.ActiveConversationID() != older {
		t.Errorf("active = %q, want fallback %q", s.ActiveConversationID(), older)
	}

	s.DeleteConversation(older)
	if s.ActiveConversationID() != "" {
		t.Errorf("active = %q, want empty after last delete", s.ActiveConversationID())
	}
	if len(s.Conversations()) != 0 {
		t.Error("collection should be empty")
	}
}

func TestStore_DeleteConversation_Inactive(t *testing.T) {
	s := New()
	older := s.CreateConversation()
	newer := s.CreateConversation()

	s.DeleteConversation(older)
	if s.ActiveConversationID() != newer {
		t.Errorf("deleting an inactive conversation moved active to %q", s.ActiveConversationID())
	}
}

func TestStore_SetActiveConversation(t *testing.T) {
	s := New()
	older := s.CreateConversation()
	s.CreateConversation()

	s.SetActiveConversation(older)
	if s.ActiveConversationID() != older {
		t.Errorf("active = %q, want %q", s.ActiveConversationID(), older)
	}
}

// =============================================================================
// MESSAGE OPERATION TESTS
// =============================================================================

func TestStore_AddMessage(t *testing.T) {
	s := New()
	convID := s.CreateConversation()

	msgID := s.AddMessage(convID, *model.NewUserMessage("what is Go?"))
	if msgID == "" {
		t.Fatal("AddMessage returned empty id")
	}

	conv := s.ActiveConversation()
	if conv.MessageCount() != 1 {
		t.Fatalf("MessageCount = %d, want 1", conv.MessageCount())
	}
	if conv.Title != "what is Go?" {
		t.Errorf("Title = %q, want first user message", conv.Title)
	}
	if got := s.AddMessage("missing", *model.NewUserMessage("x")); got != "" {
		t.Errorf("AddMessage(missing) = %q, want empty", got)
	}
}

func TestStore_UpdateMessage(t *testing.T) {
	s := New()
	convID := s.CreateConversation()
	msgID := s.AddMessage(convID, *model.NewAssistantPlaceholder())

	s.UpdateMessage(convID, msgID, model.MessageUpdate{
		Content: model.StringPtr("partial"),
	})

	msg := s.Conversation(convID).GetMessageByID(msgID)
	if msg.Content != "partial" {
		t.Errorf("Content = %q, want %q", msg.Content, "partial")
	}
	if !msg.IsStreaming {
		t.Error("partial update should not clear streaming flag")
	}

	// Misses resolve to no-ops, never panics.
	s.UpdateMessage("missing", msgID, model.MessageUpdate{})
	s.UpdateMessage(convID, "missing", model.MessageUpdate{})
}

// =============================================================================
// TRANSIENT FLAG TESTS
// =============================================================================

func TestStore_TransientFlagsNotPersisted(t *testing.T) {
	p := &recordingPersister{}
	s := NewWithPersister(p)
	s.CreateConversation()

	before := len(p.saves)
	s.SetStreaming(true)
	s.SetError("boom")
	s.ClearError()
	if len(p.saves) != before {
		t.Errorf("transient flag mutations triggered %d saves", len(p.saves)-before)
	}

	if !s.IsStreaming() {
		t.Error("IsStreaming should be true")
	}
	if s.Err() != "" {
		t.Errorf("Err = %q, want cleared", s.Err())
	}
}

func TestStore_PersistsAfterMutations(t *testing.T) {
	p := &recordingPersister{}
	s := NewWithPersister(p)

	convID := s.CreateConversation()
	s.AddMessage(convID, *model.NewUserMessage("hi"))
	s.SetActiveConversation(convID)
	s.DeleteConversation(convID)

	if len(p.saves) != 4 {
		t.Fatalf("saves = %d, want 4", len(p.saves))
	}
	last := p.saves[len(p.saves)-1]
	if len(last.Conversations) != 0 || last.ActiveConversationID != "" {
		t.Errorf("final state = %+v, want empty", last)
	}
}

func TestStore_PersistFailureDoesNotFailMutation(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	s := NewWithPersister(p)

	id := s.CreateConversation()
	if id == "" || len(s.Conversations()) != 1 {
		t.Error("mutation should succeed even when persistence fails")
	}
}

// =============================================================================
// HYDRATION TESTS
// =============================================================================

func TestStore_Hydrate(t *testing.T) {
	conv := model.NewConversation()
	conv.AddMessage(model.NewUserMessage("restored"))

	s := New()
	s.SetStreaming(true)
	s.SetError("stale")
	s.Hydrate(State{
		Conversations:        []*model.Conversation{conv},
		ActiveConversationID: conv.ID,
	})

	if s.ActiveConversationID() != conv.ID {
		t.Errorf("active = %q, want %q", s.ActiveConversationID(), conv.ID)
	}
	if s.IsStreaming() {
		t.Error("hydration should reset the streaming flag")
	}
	if s.Err() != "" {
		t.Error("hydration should reset the error message")
	}
}

func TestStore_HydrateNilConversations(t *testing.T) {
	s := New()
	s.Hydrate(State{})

	if s.Conversations() == nil {
		t.Error("Conversations should never be nil after hydration")
	}
}
