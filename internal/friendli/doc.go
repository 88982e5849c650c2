// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package friendli provides a streaming client for the Friendli serverless
// completion API.
//
// The client opens server-sent-event streams against the chat completions
// endpoint and hands the raw body back to the caller for frame parsing.
// Failures are wrapped in ClientError, which carries the upstream HTTP
// status so callers can mirror it.
//
// # Usage
//
//	client := friendli.NewClient(friendli.Config{Token: token})
//	body, err := client.OpenStream(ctx, messages)
//	if err != nil {
//	    var ce *friendli.ClientError
//	    if errors.As(err, &ce) && ce.StatusCode != 0 {
//	        // mirror ce.StatusCode downstream
//	    }
//	}
//	defer body.Close()
package friendli
