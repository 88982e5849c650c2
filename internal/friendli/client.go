// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package friendli provides a streaming client for the Friendli serverless
// completion API.
package friendli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the Friendli serverless endpoint root.
	DefaultBaseURL = "https://api.friendli.ai/serverless/v1"

	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "LGAI-EXAONE/K-EXAONE-236B-A23B"

	chatCompletionsPath = "/chat/completions"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType classifies client errors for programmatic handling.
type ErrorType string

const (
	ErrTypeConnection ErrorType = "connection"
	ErrTypeAuth       ErrorType = "auth"
	ErrTypeRateLimit  ErrorType = "rate_limit"
	ErrTypeUpstream   ErrorType = "upstream"
	ErrTypeRequest    ErrorType = "request"
)

// ClientError wraps upstream failures with a type and, when the upstream
// responded at all, the HTTP status it returned.
type ClientError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// classifyStatus maps an upstream HTTP status to an error type.
func classifyStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrTypeAuth
	case status == http.StatusTooManyRequests:
		return ErrTypeRateLimit
	default:
		return ErrTypeUpstream
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds the client settings. Zero-value fields fall back to the
// package defaults.
type Config struct {
	BaseURL string
	Token   string
	Model   string
}

// Client talks to the Friendli chat completions API. Credentials may be
// swapped at runtime, so reads and writes of them go through a lock.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	model string
}

// NewClient creates a client from the given config.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client-side timeout: completions stream for as long as the
		// model generates. Cancellation comes from the request context.
		httpClient: &http.Client{},
		token:      cfg.Token,
		model:      model,
	}
}

// UpdateCredentials swaps the token and model used for subsequent requests.
// In-flight streams keep the values they started with.
func (c *Client) UpdateCredentials(token, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != "" {
		c.token = token
	}
	if model != "" {
		c.model = model
	}
}

// Model returns the model currently configured for requests.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// =============================================================================
// STREAMING
// =============================================================================

// OpenStream starts a streaming chat completion and returns the raw response
// body. The caller owns the body and must close it. Reasoning parsing and
// thinking are always enabled so the provider splits the trace into
// reasoning_content.
func (c *Client) OpenStream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	c.mu.RLock()
	token := c.token
	model := c.model
	c.mu.RUnlock()

	body := ChatRequest{
		Model:              model,
		Messages:           messages,
		Stream:             true,
		ParseReasoning:     true,
		ChatTemplateKwargs: ChatTemplateKwargs{EnableThinking: true},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypeRequest,
			Message: "encoding request",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypeRequest,
			Message: "building request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypeConnection,
			Message: "connecting to completion API",
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &ClientError{
			Type:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.StatusCode, detail),
		}
	}

	return resp.Body, nil
}

// upstreamMessage builds a readable message from an error response body,
// preferring the provider's own error text when it parses.
func upstreamMessage(status int, body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("upstream returned status %d", status)
}
