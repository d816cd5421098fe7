// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/export"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SendCmd runs one send on the view-model off the UI goroutine.
func SendCmd(ctx context.Context, vm *chatbot.ViewModel) tea.Cmd {
	return func() tea.Msg {
		return SendCompleteMsg{Err: vm.SendMessage(ctx)}
	}
}

// ExportCmd writes the current transcript as HTML.
func ExportCmd(cfg *config.Config, vm *chatbot.ViewModel, formatter export.Formatter) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.OutputDir = cfg.UI.ExportDir
		opts.Formatter = formatter

		path, err := export.ExportHTML(export.NewDocument(cfg, vm.Messages()), opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// WatchConfigCmd returns a ReloadFunc that forwards reloads to a running
// program.
func WatchConfigCmd(p *tea.Program) config.ReloadFunc {
	return func(cfg *config.Config, err error) {
		p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
	}
}
