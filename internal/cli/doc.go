// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the fredchat command line: argument parsing, the
// line-based chat REPL, one-shot ask, the key server command and config
// management. The full-screen UI lives in ui/chat; main wires the two.
//
// # Commands
//
//	fredchat                  full-screen chat (default on a TTY)
//	fredchat chat             REPL with history (peterh/liner)
//	fredchat ask "question"   one request, reply on stdout
//	fredchat keyserver        serve the API key to local clients
//	fredchat config show      effective config, secrets redacted
//
// # Output
//
// Colors follow NO_COLOR, FORCE_COLOR and TTY detection (golang.org/x/term).
// Replies are drawn with the configured render mode; code mode falls back to
// plain text when colors are off.
package cli
