// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
	"github.com/jeranaias/fredchat/internal/ui/styles"
	"github.com/jeranaias/fredchat/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

func (m Model) renderChat() string {
	if m.width == 0 {
		return "Starting..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if activity := m.renderActivity(); activity != "" {
		parts = append(parts, activity)
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.cfg.UI.BotName)
	subtitle := m.theme.HeaderSubtitle.Render(m.cfg.Completion.Model)
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

// renderActivity shows the spinner while a reply is pending, otherwise the
// error banner if the last send failed.
func (m Model) renderActivity() string {
	st := m.vm.Snapshot()

	if st.Loading || m.pending {
		return m.spinner.View() + " " + m.theme.ThinkingText.Render(m.cfg.UI.BotName+" is typing...")
	}
	if st.ErrorOccurred {
		text := m.theme.ErrorTitle.Render(styles.IndicatorError+" Error") + " " +
			m.theme.ErrorMessage.Render(st.CustomErrorMessage)
		return m.theme.ErrorBanner.Width(max(m.width-2, 10)).Render(text)
	}
	return ""
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var hints []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		hints = append(hints, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	bar := strings.Join(hints, "  ")

	if m.statusMsg != "" {
		room := m.width - lipgloss.Width(bar) - 4
		if room > 10 {
			bar += "  " + util.TruncateWidth(m.statusMsg, room)
		} else {
			bar = util.TruncateWidth(m.statusMsg, max(m.width-2, 1))
		}
	}
	return m.theme.StatusBar.Width(m.width).Render(bar)
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages(msgs []model.ChatMessage) string {
	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderMessage(msg model.ChatMessage) string {
	width := m.theme.BubbleWidth()
	stamp := m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))

	if msg.User {
		name := m.theme.UserName.Render("You")
		header := lipgloss.NewStyle().MarginLeft(4).Render(name + " " + stamp)
		return header + "\n" + m.theme.UserBubble.Width(width).Render(msg.Text)
	}

	header := m.theme.BotName.Render(m.cfg.UI.BotName) + " " + stamp
	body := m.renderer.Render(msg.Text)
	if m.renderer.Mode() != render.ModeCode {
		body = m.theme.BotBubble.Width(width).Render(body)
	}
	return header + "\n" + body
}
