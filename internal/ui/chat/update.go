// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/render"
	"github.com/jeranaias/fredchat/internal/ui/styles"
)

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.theme.SetSize(m.width, m.height)
	m.renderer.SetWidth(m.theme.BubbleWidth() - 4)
	m.viewport.Width = max(m.width, 1)
	m.input.SetWidth(max(m.width, 10))

	m.layout()
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Send):
		return m.send()

	case key.Matches(msg, m.keyMap.Export):
		m.statusMsg = "Exporting conversation..."
		return m, ExportCmd(m.cfg, m.vm, m.formatter)

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Input is locked until the pending reply arrives.
	if m.pending || m.vm.Loading() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.layout()
	return m, cmd
}

// send hands the current input to the view-model.
func (m Model) send() (tea.Model, tea.Cmd) {
	if m.pending || m.vm.Loading() {
		m.statusMsg = fmt.Sprintf("%s is still replying", m.cfg.UI.BotName)
		return m, nil
	}

	text := norm.NFC.String(m.input.Value())
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	m.vm.SetInput(text)
	m.pending = true
	m.statusMsg = ""
	return m, tea.Batch(SendCmd(m.ctx, m.vm), m.spinner.Tick)
}

func (m Model) handleSendComplete(msg SendCompleteMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, chatbot.ErrSendInProgress) {
		m.statusMsg = fmt.Sprintf("%s is still replying", m.cfg.UI.BotName)
		return m, nil
	}

	m.pending = false
	m.input.Reset()
	m.layout()
	m.refresh()
	return m, nil
}

func (m Model) handleExportDone(msg ExportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.L().Warnf("export failed: %v", msg.Err)
		m.statusMsg = styles.RenderError("Export failed: " + msg.Err.Error())
	} else {
		m.statusMsg = styles.RenderSuccess("Exported to " + msg.Path)
	}
	m.layout()
	return m, nil
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.L().Warnf("config reload failed: %v", msg.Err)
		m.statusMsg = styles.RenderError("Config reload failed")
		return m, nil
	}

	// Display settings apply immediately; connection settings need a restart.
	m.cfg = msg.Config
	if mode, err := render.ParseMode(m.cfg.UI.RenderMode); err == nil && mode != m.renderer.Mode() {
		m.renderer = render.NewTerminal(mode, m.theme.BubbleWidth()-4)
	}
	if trust, err := render.ParseTrustMode(m.cfg.UI.Trust); err == nil {
		m.formatter = render.NewHTMLFormatter(trust)
	}
	m.statusMsg = styles.RenderSuccess("Config reloaded")
	m.refresh()
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the input to its content and gives the rest to the viewport.
func (m *Model) layout() {
	m.input.SetHeight(m.vm.AutoGrow(m.input.LineCount()))
	if m.width == 0 {
		return
	}

	reserved := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if activity := m.renderActivity(); activity != "" {
		reserved += lipgloss.Height(activity)
	}

	m.viewport.Height = max(m.height-reserved, 1)
}

// refresh redraws the message list and scrolls to the newest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages(m.vm.Messages()))
	m.vm.RenderComplete()
}
