// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay implements the HTTP server that bridges clients to the
// upstream completion API.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/exachat/internal/friendli"
	"github.com/jeranaias/exachat/internal/sse"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultPort is the port the relay listens on when none is configured.
	DefaultPort = 8080

	// readChunkSize is the buffer size for draining the upstream stream.
	readChunkSize = 4096
)

// DefaultSystemPrompt is prepended when a request carries no system message.
const DefaultSystemPrompt = `You are K-EXAONE, a helpful, harmless, and honest AI assistant developed by LG AI Research. You provide accurate, thoughtful, and detailed responses while maintaining a friendly and professional tone.

When responding:
- Be clear and concise while being thorough
- Use markdown formatting when appropriate
- Break down complex topics into digestible parts
- Acknowledge uncertainty when you don't know something
- Provide examples when helpful`

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one role/content pair in a relay request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// StreamFrame is the simplified frame the relay emits per upstream delta.
// FinishReason stays nil until the upstream reports one, so its JSON null
// distinguishes "still generating" from an empty reason.
type StreamFrame struct {
	ID               string  `json:"id"`
	Content          string  `json:"content"`
	ReasoningContent string  `json:"reasoning_content"`
	FinishReason     *string `json:"finish_reason"`
}

// ErrorFrame is emitted in-band when the stream fails after headers are out.
type ErrorFrame struct {
	Error string `json:"error"`
}

// =============================================================================
// SERVER
// =============================================================================

// Upstream opens streaming completions. Satisfied by *friendli.Client.
type Upstream interface {
	OpenStream(ctx context.Context, messages []friendli.Message) (io.ReadCloser, error)
}

// Server relays chat requests to the upstream completion API, translating
// its stream format into simplified frames.
type Server struct {
	port     int
	upstream Upstream
	router   *http.ServeMux
	server   *http.Server
}

// NewServer creates a relay server on the given port.
func NewServer(port int, upstream Upstream) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:     port,
		upstream: upstream,
		router:   http.NewServeMux(),
	}
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Chain(s.router, Recovery, SecurityHeaders, Logging),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: completion streams stay open for as long as the
		// model generates.
	}

	return s
}

// routes registers all HTTP endpoints.
func (s *Server) routes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the server until it is shut down or fails.
func (s *Server) Start() error {
	log.Printf("SERVER_START | port=%d", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("SERVER_STOP | port=%d", s.port)
	return s.server.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat validates the request, opens the upstream stream, and relays
// it as simplified frames. Errors before the first byte is written become
// JSON error responses; errors after that are sent in-band.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}
	for _, msg := range req.Messages {
		if !validRole(msg.Role) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid message role: %q", msg.Role))
			return
		}
	}

	upstream, err := s.upstream.OpenStream(r.Context(), withSystemPrompt(req.Messages))
	if err != nil {
		var ce *friendli.ClientError
		if errors.As(err, &ce) && ce.StatusCode != 0 {
			log.Printf("UPSTREAM_ERROR | status=%d msg=%s", ce.StatusCode, ce.Message)
			writeError(w, ce.StatusCode, ce.Message)
			return
		}
		log.Printf("UPSTREAM_ERROR | err=%v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer upstream.Close()

	s.relayStream(w, upstream)
}

// validRole reports whether the role is one the relay accepts.
func validRole(role string) bool {
	switch role {
	case "user", "assistant", "system":
		return true
	}
	return false
}

// withSystemPrompt prepends the default system message unless the request
// already carries one, and converts to the upstream message type.
func withSystemPrompt(messages []ChatMessage) []friendli.Message {
	hasSystem := false
	for _, msg := range messages {
		if msg.Role == "system" {
			hasSystem = true
			break
		}
	}

	out := make([]friendli.Message, 0, len(messages)+1)
	if !hasSystem {
		out = append(out, friendli.Message{Role: "system", Content: DefaultSystemPrompt})
	}
	for _, msg := range messages {
		out = append(out, friendli.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// =============================================================================
// STREAM RELAY
// =============================================================================

// relayStream drains the upstream body, translating each frame and flushing
// it to the client as it arrives. Unparseable frames are dropped and counted;
// the count is logged once when the stream closes.
func (s *Server) relayStream(w http.ResponseWriter, upstream io.Reader) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	parser := sse.NewParser()
	skipped := 0

	defer func() {
		if skipped > 0 {
			log.Printf("STREAM_SKIPPED | frames=%d", skipped)
		}
	}()

	buf := make([]byte, readChunkSize)
	for {
		n, err := upstream.Read(buf)
		if n > 0 {
			for _, payload := range parser.Feed(buf[:n]) {
				if !s.relayFrame(w, payload, &skipped) {
					return
				}
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			for _, payload := range parser.Flush() {
				if !s.relayFrame(w, payload, &skipped) {
					return
				}
			}
			if !errors.Is(err, io.EOF) {
				log.Printf("STREAM_ERROR | err=%v", err)
				writeFrame(w, ErrorFrame{Error: "Streaming failed"})
			}
			if flusher != nil {
				flusher.Flush()
			}
			return
		}
	}
}

// relayFrame translates one upstream payload and writes it to the client.
// Returns false when the stream should stop.
func (s *Server) relayFrame(w http.ResponseWriter, payload string, skipped *int) bool {
	if sse.IsDone(payload) {
		fmt.Fprintf(w, "data: %s\n\n", sse.DoneSentinel)
		return true
	}

	var chunk friendli.StreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		*skipped++
		return true
	}

	frame := StreamFrame{ID: chunk.ID}
	if choice := chunk.FirstChoice(); choice != nil {
		frame.Content = choice.Delta.Content
		frame.ReasoningContent = choice.Delta.ReasoningContent
		frame.FinishReason = choice.FinishReason
	}

	return writeFrame(w, frame)
}

// writeFrame encodes v as one SSE data frame. Returns false on write failure,
// which means the client went away.
func writeFrame(w io.Writer, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return true
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err == nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | err=%v", err)
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
