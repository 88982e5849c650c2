// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the exachat application.
package util

import (
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// TitleMaxRunes is the maximum length of a derived conversation title.
const TitleMaxRunes = 50

// DefaultTitle is used when a title cannot be derived from the content.
const DefaultTitle = "New Conversation"

// markdownLink matches inline links like [label](https://example.com).
var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)

// markdownMarks matches emphasis, heading, strikethrough, and code markers.
var markdownMarks = regexp.MustCompile("[#*_~`]")

// StripMarkdown collapses markdown-formatted text to plain text.
// Emphasis, heading, strikethrough, and code markers are removed, and
// inline links are replaced by their label.
func StripMarkdown(s string) string {
	s = markdownMarks.ReplaceAllString(s, "")
	s = markdownLink.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// GenerateConversationTitle derives a conversation title from the first
// user message. The content is stripped of markdown and truncated to
// TitleMaxRunes. Empty or whitespace-only content yields DefaultTitle.
func GenerateConversationTitle(content string) string {
	cleaned := StripMarkdown(content)
	if cleaned == "" {
		return DefaultTitle
	}
	return TruncateRunes(cleaned, TitleMaxRunes)
}

// TruncateRunes truncates a string to a maximum number of runes (characters).
// This is safe for UTF-8 strings as it counts characters, not bytes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width, accounting
// for double-width characters (CJK) that take 2 columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadWidth pads a string with spaces to the given display width.
func PadWidth(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// FormatRelativeDate formats a timestamp relative to now for list display:
// "Today", "Yesterday", "N days ago", or a short calendar date.
func FormatRelativeDate(t time.Time, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return itoa(days) + " days ago"
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// itoa converts a small non-negative integer without using fmt.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
