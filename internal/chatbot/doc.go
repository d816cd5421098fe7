// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatbot provides the chat view-model shared by the terminal UI and
// the line REPL.
//
// A ViewModel owns the ordered message list, the current input and the
// loading/error flags. SendMessage runs the whole send sequence: append the
// user message, fetch a credential, request one completion, then append the
// reply or record one of three user-facing error messages.
//
// # Key Types
//
//   - ViewModel: State plus SendMessage, AutoGrow and ScrollToBottom
//   - State: Snapshot handed to renderers
//   - KeyProvider, Completer, Formatter: Injected collaborators
//
// # Usage
//
//	vm, err := chatbot.NewFromConfig(cfg)
//	vm.SetInput("Hello")
//	if err := vm.SendMessage(ctx); errors.Is(err, chatbot.ErrSendInProgress) {
//	    // previous send still running
//	}
//	st := vm.Snapshot()
//	if st.ErrorOccurred {
//	    fmt.Println(st.CustomErrorMessage)
//	}
package chatbot
