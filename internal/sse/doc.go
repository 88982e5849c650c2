// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes server-sent-event style byte streams into frame payloads.
//
// Both sides of the relay speak the same line-oriented framing: payloads are
// carried on "data: " lines, and the literal payload "[DONE]" is the terminal
// sentinel. The parser tolerates frames split across arbitrary network reads
// by carrying incomplete trailing lines between calls.
//
// # Usage
//
//	parser := sse.NewParser()
//	for {
//		n, err := body.Read(buf)
//		for _, payload := range parser.Feed(buf[:n]) {
//			if sse.IsDone(payload) {
//				// terminal sentinel
//			}
//		}
//		if err != nil {
//			break
//		}
//	}
package sse
