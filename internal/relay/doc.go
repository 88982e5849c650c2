// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay implements the HTTP server that bridges clients to the
// upstream completion API.
//
// The relay accepts a conversation history on POST /api/chat, prepends the
// default system prompt when none is present, opens a streaming completion
// upstream, and re-emits the stream as simplified server-sent-event frames:
//
//	data: {"id":"...","content":"...","reasoning_content":"...","finish_reason":null}
//
// The upstream [DONE] sentinel is forwarded verbatim. Failures before any
// stream byte is written are JSON error responses mirroring the upstream
// status; failures after that are sent in-band as {"error": "..."} frames.
//
// # Endpoints
//
//   - POST /api/chat: relay a streaming completion
//   - GET  /health:   liveness probe
package relay
