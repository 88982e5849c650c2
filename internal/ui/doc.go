// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders chat output for the terminal.
//
// Finished assistant messages go through a glamour markdown renderer bound
// to the configured theme; reasoning traces, errors, and the conversation
// list use lipgloss styles. Streaming output is printed raw as deltas
// arrive and re-rendered as markdown once the turn completes.
package ui
