// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for exachat.
//
// Settings come from three layers, later layers winning:
//
//   - Built-in defaults
//   - ~/.exachat/config.toml
//   - Environment variables (EXACHAT_PORT, EXACHAT_UPSTREAM_URL,
//     FRIENDLI_TOKEN, EXACHAT_MODEL, EXACHAT_RELAY_URL, EXACHAT_DATA_DIR)
//
// Watch observes the config file for edits and hands reloaded
// configurations to a callback, which the relay uses to pick up token and
// model changes without a restart.
package config
