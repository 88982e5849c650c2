// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL command handler.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/exachat/internal/chat"
	"github.com/jeranaias/exachat/internal/config"
	"github.com/jeranaias/exachat/internal/storage"
	"github.com/jeranaias/exachat/internal/store"
	"github.com/jeranaias/exachat/internal/ui"
)

const historyFile = "history"

const replHelp = `Commands:
  /new                Start a new conversation
  /list               List conversations
  /switch <n>         Switch to conversation n (see /list)
  /delete <n>         Delete conversation n
  /theme [light|dark|auto] Show or change the display theme
  /status             Show session status
  /help               Show this help
  /quit               Exit
`

// session bundles the running chat client state.
type session struct {
	cfg      *config.Config
	store    *store.Store
	storage  *storage.Store
	consumer *chat.Consumer
	display  *ui.Display
	line     *liner.State
}

// HandleChat runs the interactive chat REPL until the user quits.
func HandleChat(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	disk, err := storage.New(cfg.Client.DataDir)
	if err != nil {
		return err
	}

	s := store.NewWithPersister(disk)
	s.Hydrate(disk.LoadState())

	display, err := ui.NewDisplay(disk.LoadTheme())
	if err != nil {
		return err
	}

	sess := &session{
		cfg:      cfg,
		store:    s,
		storage:  disk,
		consumer: chat.NewConsumer(s, cfg.Client.RelayURL),
		display:  display,
		line:     liner.NewLiner(),
	}
	defer sess.close()

	sess.line.SetCtrlCAborts(true)
	sess.loadHistory()

	// Ctrl-C during a streaming turn cancels the stream instead of killing
	// the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			sess.consumer.Abort()
		}
	}()

	fmt.Printf("exachat %s  (relay %s)\n", Version, cfg.Client.RelayURL)
	fmt.Println("Type /help for commands, /quit to exit.")
	if conv := s.ActiveConversation(); conv != nil && !conv.IsEmpty() {
		fmt.Printf("\nResuming %q:\n\n", conv.Title)
		sess.replayConversation()
	}

	return sess.loop()
}

// close releases the line editor and saves input history.
func (s *session) close() {
	s.saveHistory()
	s.line.Close()
}

// =============================================================================
// REPL LOOP
// =============================================================================

// loop reads and dispatches input until quit or EOF.
func (s *session) loop() error {
	for {
		input, err := s.line.Prompt(s.display.Prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := s.handleCommand(input); quit {
				return nil
			}
			continue
		}

		s.sendMessage(input)
	}
}

// sendMessage runs one streaming turn, printing deltas as they arrive.
func (s *session) sendMessage(content string) {
	first := true
	inReasoning := false
	s.consumer.OnDelta = func(delta, reasoning string) {
		if first {
			first = false
			fmt.Println()
		}
		if reasoning != "" {
			inReasoning = true
			fmt.Print(s.display.RenderReasoningDelta(reasoning))
		}
		if delta != "" {
			if inReasoning {
				inReasoning = false
				fmt.Print("\n\n")
			}
			fmt.Print(delta)
		}
	}

	err := s.consumer.SendMessage(context.Background(), content)
	fmt.Println()

	if err != nil {
		if errors.Is(err, chat.ErrStreamInFlight) {
			fmt.Print(s.display.RenderError(err.Error()))
			return
		}
		fmt.Print(s.display.RenderError(s.store.Err()))
		return
	}

	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches a slash command. Returns true to quit.
func (s *session) handleCommand(input string) bool {
	fields := strings.Fields(input)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help":
		fmt.Print(replHelp)

	case "/new":
		s.store.CreateConversation()
		fmt.Println("Started a new conversation.")

	case "/list":
		fmt.Print(s.display.RenderConversationList(
			s.store.Conversations(), s.store.ActiveConversationID()))

	case "/switch":
		if conv, ok := s.conversationArg(args); ok {
			s.store.SetActiveConversation(conv)
			fmt.Printf("Switched to %q.\n\n", s.store.ActiveConversation().Title)
			s.replayConversation()
		}

	case "/delete":
		if conv, ok := s.conversationArg(args); ok {
			s.store.DeleteConversation(conv)
			fmt.Println("Conversation deleted.")
		}

	case "/theme":
		s.handleTheme(args)

	case "/status":
		s.printStatus()

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", cmd)
	}

	return false
}

// conversationArg resolves a 1-based list index argument to a conversation
// id, printing an error when it does not resolve.
func (s *session) conversationArg(args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Println("Usage: /switch <n> or /delete <n> (see /list)")
		return "", false
	}
	n, err := strconv.Atoi(args[0])
	conversations := s.store.Conversations()
	if err != nil || n < 1 || n > len(conversations) {
		fmt.Printf("No conversation %q. Run /list to see the numbers.\n", args[0])
		return "", false
	}
	return conversations[n-1].ID, true
}

// handleTheme shows or switches the display theme.
func (s *session) handleTheme(args []string) {
	if len(args) == 0 {
		fmt.Printf("Theme: %s\n", s.display.Theme())
		return
	}

	theme := strings.ToLower(args[0])
	if theme == "auto" {
		theme = ui.DetectTheme()
	}
	if theme != "light" && theme != "dark" {
		fmt.Println("Usage: /theme [light|dark|auto]")
		return
	}

	display, err := ui.NewDisplay(theme)
	if err != nil {
		fmt.Print(s.display.RenderError(err.Error()))
		return
	}
	s.display = display

	if err := s.storage.SaveTheme(theme); err != nil {
		fmt.Print(s.display.RenderError("saving theme: " + err.Error()))
		return
	}
	fmt.Printf("Theme set to %s.\n", theme)
}

// printStatus shows the current session state.
func (s *session) printStatus() {
	fmt.Printf("Relay:         %s (%s)\n", s.cfg.Client.RelayURL, s.relayHealth())
	fmt.Printf("Data dir:      %s\n", s.storage.BaseDir())
	fmt.Printf("Theme:         %s\n", s.display.Theme())
	fmt.Printf("Conversations: %d\n", len(s.store.Conversations()))
	if conv := s.store.ActiveConversation(); conv != nil {
		fmt.Printf("Active:        %q (%d messages)\n", conv.Title, conv.MessageCount())
	}
	if s.store.Err() != "" {
		fmt.Printf("Last error:    %s\n", s.store.Err())
	}
}

// relayHealth probes the relay's health endpoint.
func (s *session) relayHealth() string {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(s.cfg.Client.RelayURL + "/health")
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return "ok"
}

// replayConversation re-renders the active conversation's history.
func (s *session) replayConversation() {
	conv := s.store.ActiveConversation()
	if conv == nil {
		return
	}
	for _, msg := range conv.Messages {
		fmt.Print(s.display.RenderMessage(msg))
		fmt.Println()
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// historyPath returns the REPL input history file path.
func (s *session) historyPath() string {
	return filepath.Join(s.storage.BaseDir(), historyFile)
}

// loadHistory restores saved input history, if any.
func (s *session) loadHistory() {
	f, err := os.Open(s.historyPath())
	if err != nil {
		return
	}
	defer f.Close()
	s.line.ReadHistory(f)
}

// saveHistory persists input history for the next session.
func (s *session) saveHistory() {
	path := s.historyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	s.line.WriteHistory(f)
}
