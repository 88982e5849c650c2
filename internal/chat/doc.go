// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat drives a conversation turn against the relay and feeds the
// streamed response into the store.
//
// A turn records the user message, appends an empty assistant placeholder,
// and then replaces the placeholder's content with the accumulated stream
// total after every delta. Three terminal paths exist:
//
//   - done: the stream ends cleanly and the placeholder is finalized as-is
//   - cancelled: Abort keeps any partial content, or substitutes a
//     cancellation notice when nothing arrived
//   - error: the placeholder is replaced with an error notice and the
//     store-level error message is set
//
// Whatever the path, the streaming flag is always cleared when the turn
// ends.
package chat
