// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes server-sent-event style byte streams into frame payloads.
package sse

import "strings"

// dataPrefix marks a line carrying a frame payload.
const dataPrefix = "data: "

// DoneSentinel is the reserved payload value marking stream completion.
// It is a literal token, not JSON, and must be recognized before any
// structured parsing of a payload.
const DoneSentinel = "[DONE]"

// Parser decodes a raw byte stream into discrete frame payloads.
//
// Network reads arrive at arbitrary granularity: a single line may span
// multiple chunks, and a single chunk may contain multiple lines. The parser
// keeps the trailing incomplete line as carry-over between Feed calls so the
// emitted payloads are invariant to how the bytes were chunked.
//
// Lines that do not start with the "data: " prefix are discarded silently;
// the upstream protocol interleaves comments and keepalives that are not
// frames.
type Parser struct {
	carry string
}

// NewParser creates a parser with an empty carry-over buffer.
func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes the next chunk of bytes and returns the payloads of all
// complete frames it contained. The final element after splitting is held
// back; it may be the prefix of a line whose remainder has not arrived yet.
func (p *Parser) Feed(chunk []byte) []string {
	text := p.carry + string(chunk)
	lines := strings.Split(text, "\n")
	p.carry = lines[len(lines)-1]

	var payloads []string
	for _, line := range lines[:len(lines)-1] {
		if payload, ok := framePayload(line); ok {
			payloads = append(payloads, payload)
		}
	}
	return payloads
}

// Flush drains the carry-over buffer at end of stream. A stream that ends
// without a trailing newline can still terminate with a complete frame.
func (p *Parser) Flush() []string {
	line := p.carry
	p.carry = ""
	if payload, ok := framePayload(line); ok {
		return []string{payload}
	}
	return nil
}

// IsDone reports whether a payload is the terminal sentinel.
func IsDone(payload string) bool {
	return payload == DoneSentinel
}

// framePayload extracts the payload from a single decoded line.
func framePayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return line[len(dataPrefix):], true
}
