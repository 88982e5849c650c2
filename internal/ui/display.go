// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui renders chat output for the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/exachat/internal/model"
	"github.com/jeranaias/exachat/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	activeMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
)

// =============================================================================
// DISPLAY
// =============================================================================

// DetectTheme picks a theme from the terminal background color.
func DetectTheme() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// Display renders markdown and styled output to the terminal. A Display is
// bound to a theme; switching themes means creating a new one.
type Display struct {
	renderer *glamour.TermRenderer
	theme    string
}

// NewDisplay creates a display for the given theme ("light" or "dark").
// Unknown themes fall back to dark.
func NewDisplay(theme string) (*Display, error) {
	style := "dark"
	if theme == "light" {
		style = "light"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}

	return &Display{renderer: renderer, theme: style}, nil
}

// Theme returns the active theme name.
func (d *Display) Theme() string {
	return d.theme
}

// Prompt returns the styled input prompt.
func (d *Display) Prompt() string {
	return promptStyle.Render("you> ")
}

// RenderMarkdown renders markdown source for the terminal. Falls back to
// the raw text when rendering fails.
func (d *Display) RenderMarkdown(source string) string {
	out, err := d.renderer.Render(source)
	if err != nil {
		return source
	}
	return out
}

// RenderMessage renders one finished message: role header, optional
// reasoning trace, then the markdown body.
func (d *Display) RenderMessage(msg *model.Message) string {
	var b strings.Builder

	b.WriteString(roleStyle.Render(msg.Role.DisplayName()))
	b.WriteString("\n")

	if msg.ReasoningContent != "" {
		b.WriteString(reasoningStyle.Render(msg.ReasoningContent))
		b.WriteString("\n\n")
	}

	if msg.Role == model.RoleAssistant {
		b.WriteString(d.RenderMarkdown(msg.Content))
	} else {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderError renders an error notice.
func (d *Display) RenderError(msg string) string {
	return errorStyle.Render("error: "+msg) + "\n"
}

// RenderReasoningDelta styles a live reasoning fragment for streaming
// output.
func (d *Display) RenderReasoningDelta(delta string) string {
	return reasoningStyle.Render(delta)
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

const listTitleWidth = 40

// RenderConversationList renders the collection as a numbered table with
// the active conversation marked.
func (d *Display) RenderConversationList(conversations []*model.Conversation, activeID string) string {
	if len(conversations) == 0 {
		return dimStyle.Render("No conversations yet.") + "\n"
	}

	now := time.Now()
	var b strings.Builder
	for i, conv := range conversations {
		mark := "  "
		if conv.ID == activeID {
			mark = activeMarkStyle.Render("* ")
		}

		title := util.PadWidth(util.TruncateWidth(conv.Title, listTitleWidth), listTitleWidth)
		line := fmt.Sprintf("%s%2d. %s  %s (%d messages)",
			mark, i+1, title,
			dimStyle.Render(util.FormatRelativeDate(conv.UpdatedAt, now)),
			conv.MessageCount())
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
