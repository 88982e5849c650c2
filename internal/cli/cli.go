// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for exachat.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdServe
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// Raw args remaining after flag parsing.
	Raw []string
}

const usageText = `exachat - streaming chat for the K-EXAONE model

Exachat runs a relay server that bridges clients to the Friendli
completion API, and a terminal chat client that talks to the relay.

Usage:
  exachat                 Start interactive chat (default)
  exachat chat            Start interactive chat
  exachat serve           Run the relay server
  exachat version, -v     Show version information
  exachat help, -h        Show this help

Chat commands (inside the REPL):
  /new                    Start a new conversation
  /list                   List conversations
  /switch <n>             Switch to conversation n
  /delete <n>             Delete conversation n
  /theme [light|dark|auto]  Show or change the display theme
  /status                 Show session status
  /help                   Show REPL commands
  /quit                   Exit

Environment:
  FRIENDLI_TOKEN          Upstream API token (required for serve)
  EXACHAT_PORT            Relay listen port (default 8080)
  EXACHAT_MODEL           Completion model identifier
  EXACHAT_RELAY_URL       Relay base URL for the chat client
  EXACHAT_DATA_DIR        Conversation storage directory

Configuration file: ~/.exachat/config.toml
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]
	remaining, parsed := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdChat, parsed
	}

	cmd := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch cmd {
	case "chat":
		return CmdChat, parsed
	case "serve", "server":
		return CmdServe, parsed
	case "version", "-v", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts flags that apply to every command.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				i++
				parsed.ConfigPath = args[i]
			}
		default:
			remaining = append(remaining, args[i])
		}
	}

	return remaining, parsed
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("exachat %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// HandleHelp prints usage information.
func HandleHelp() {
	fmt.Print(usageText)
}
