// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides colors and lipgloss styles for the fredchat terminal UI.

All colors are lipgloss AdaptiveColor values, so they follow the terminal's
light or dark background.

# Key Types

  - Theme: Styles for the header, message bubbles, input, status bar and
    error banner, plus the current terminal size

# Usage

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	bubble := theme.BotBubble.Width(theme.BubbleWidth()).Render(text)
	banner := theme.ErrorBanner.Render(styles.RenderError(msg))

Status text pairs a color with an ASCII marker ([OK], [X]) so it stays
readable without color.
*/
package styles
