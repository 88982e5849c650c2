// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the session-wide conversation collection.
//
// The Store is the single writer for conversation and message state. All
// mutations go through its operation set, which holds an internal mutex and
// saves the persisted fields after each change. The transient streaming and
// error flags are session-local and never written to disk.
//
// # Usage
//
//	s := store.NewWithPersister(persister)
//	s.Hydrate(loaded)
//	id := s.CreateConversation()
//	s.AddMessage(id, *model.NewUserMessage("Hello"))
package store
