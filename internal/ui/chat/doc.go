// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen terminal chat for fredchat.

The screen is a thin Bubble Tea shell over a chatbot.ViewModel: a viewport
lists the messages, a textarea holds the input and grows with its content up
to the configured maximum, and a spinner or error banner sits between them.

# Key Bindings

	Enter       send the message
	Alt+Enter   insert a newline
	Ctrl+E      export the conversation as HTML
	PgUp/PgDn   scroll
	Esc/Ctrl+C  quit

Sends run in a tea.Cmd and report back with SendCompleteMsg. After every
redraw the view-model's RenderComplete scrolls the viewport to the bottom.

# Usage

	vm, _ := chatbot.NewFromConfig(cfg)
	m := chat.New(ctx, cfg, vm, styles.NewTheme())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
*/
package chat
