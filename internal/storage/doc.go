// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists application state as JSON files on disk.
//
// Two blobs live under the base directory (default ~/.exachat):
//
//   - state.json: the conversation collection and active conversation id
//   - theme.json: the display theme name
//
// Writes go through an atomic temp-file-and-rename so readers never observe
// a partially written blob. Reads of missing or corrupt files fall back to
// empty defaults rather than failing startup.
package storage
