// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists application state as JSON files on disk.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jeranaias/exachat/internal/store"
	"github.com/jeranaias/exachat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	stateFile = "state.json"
	themeFile = "theme.json"

	// DefaultTheme is used when no theme has been persisted yet.
	DefaultTheme = "light"

	filePerm = 0o600
)

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the two persisted blobs under a base directory:
// the conversation state and the display theme. Each blob is written
// atomically so a crash mid-write never leaves a truncated file behind.
type Store struct {
	baseDir string
}

// themeBlob is the on-disk shape of the theme file.
type themeBlob struct {
	Theme string `json:"theme"`
}

// New creates a storage store rooted at baseDir. If baseDir is empty, the
// default directory under the user's home is used.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".exachat")
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the directory the store reads and writes under.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// LoadState reads the persisted conversation state. A missing or corrupt
// file yields an empty state so a damaged disk never blocks startup; the
// corrupt case is logged before falling back.
func (s *Store) LoadState() store.State {
	empty := store.State{}

	data, err := os.ReadFile(filepath.Join(s.baseDir, stateFile))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("STATE_READ_FAILED | err=%v", err)
		}
		return empty
	}

	var state store.State
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("STATE_CORRUPT | err=%v", err)
		return empty
	}
	return state
}

// SaveState writes the conversation state atomically.
func (s *Store) SaveState(state store.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return util.AtomicWriteFile(filepath.Join(s.baseDir, stateFile), data, filePerm)
}

// =============================================================================
// THEME
// =============================================================================

// LoadTheme reads the persisted theme name, falling back to DefaultTheme on
// a missing or corrupt file.
func (s *Store) LoadTheme() string {
	data, err := os.ReadFile(filepath.Join(s.baseDir, themeFile))
	if err != nil {
		return DefaultTheme
	}

	var blob themeBlob
	if err := json.Unmarshal(data, &blob); err != nil || blob.Theme == "" {
		log.Printf("THEME_CORRUPT | err=%v", err)
		return DefaultTheme
	}
	return blob.Theme
}

// SaveTheme writes the theme name atomically.
func (s *Store) SaveTheme(theme string) error {
	data, err := json.MarshalIndent(themeBlob{Theme: theme}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding theme: %w", err)
	}
	return util.AtomicWriteFile(filepath.Join(s.baseDir, themeFile), data, filePerm)
}
