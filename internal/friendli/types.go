// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package friendli provides a streaming client for the Friendli serverless
// completion API.
package friendli

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message is a single role/content pair in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTemplateKwargs carries provider-specific template switches.
type ChatTemplateKwargs struct {
	EnableThinking bool `json:"enable_thinking"`
}

// ChatRequest is the body sent to the chat completions endpoint.
type ChatRequest struct {
	Model              string             `json:"model"`
	Messages           []Message          `json:"messages"`
	Stream             bool               `json:"stream"`
	ParseReasoning     bool               `json:"parse_reasoning"`
	ChatTemplateKwargs ChatTemplateKwargs `json:"chat_template_kwargs"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Delta is the incremental payload inside a streamed choice. With reasoning
// parsing enabled the provider splits the thinking trace out of the content
// into its own field.
type Delta struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content"`
}

// Choice is one streamed completion alternative. FinishReason is nil until
// the terminal chunk of the choice.
type Choice struct {
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// StreamChunk is one decoded frame of a streaming completion response.
type StreamChunk struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// FirstChoice returns the first choice of the chunk, or nil when the
// provider sent an empty choice list (keepalive chunks do this).
func (c *StreamChunk) FirstChoice() *Choice {
	if len(c.Choices) == 0 {
		return nil
	}
	return &c.Choices[0]
}
