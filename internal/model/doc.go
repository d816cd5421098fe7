// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages and the
// request turns built from them.
//
// # Key Types
//
//   - ChatMessage: One visible message, tagged as user or bot
//   - Transcript: Append-only, thread-safe ordered message list
//   - Turn: Role/content pair sent to a completion endpoint
//   - Role: Wire role enumeration (system, user, assistant)
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.NewUserMessage("Hello!"))
//
//	turns := model.SingleExchange("You are personable chatbot.", "Hello!")
package model
