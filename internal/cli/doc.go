// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and command handlers for
// exachat.
//
// Two primary commands exist: "serve" runs the relay server, and "chat"
// (the default) runs the interactive terminal client against a relay.
package cli
