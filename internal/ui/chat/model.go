// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/render"
	"github.com/jeranaias/fredchat/internal/ui/styles"
)

var errViewportNotSized = errors.New("viewport not sized yet")

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. All chat state lives in
// the view-model; Model only owns widgets and layout.
type Model struct {
	ctx context.Context
	cfg *config.Config
	vm  *chatbot.ViewModel

	// Styling and reply rendering
	theme     *styles.Theme
	renderer  *render.Terminal
	formatter *render.HTMLFormatter

	keyMap KeyMap

	// Widgets. The viewport is shared by pointer so the view-model's scroll
	// hook reaches the live copy across Update calls.
	viewport *viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width  int
	height int

	// pending is set from Enter until SendCompleteMsg so the spinner keeps
	// ticking before the send goroutine marks the view-model as loading.
	pending bool

	// Transient status line (export result, reload notice)
	statusMsg string
}

// New creates the chat screen for vm.
func New(ctx context.Context, cfg *config.Config, vm *chatbot.ViewModel, theme *styles.Theme) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.SetHeight(vm.AutoGrow(1))
	ta.Focus()

	vp := viewport.New(0, 0)
	vpRef := &vp
	vm.SetScrollHook(func() error {
		if vpRef.Height <= 0 || vpRef.Width <= 0 {
			return errViewportNotSized
		}
		vpRef.GotoBottom()
		return nil
	})

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	mode, err := render.ParseMode(cfg.UI.RenderMode)
	if err != nil {
		mode = render.ModeCode
	}
	trust, err := render.ParseTrustMode(cfg.UI.Trust)
	if err != nil {
		trust = render.TrustTrusted
	}

	return Model{
		ctx:       ctx,
		cfg:       cfg,
		vm:        vm,
		theme:     theme,
		renderer:  render.NewTerminal(mode, 80),
		formatter: render.NewHTMLFormatter(trust),
		keyMap:    DefaultKeyMap(),
		viewport:  vpRef,
		input:     ta,
		spinner:   sp,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		*m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case SendCompleteMsg:
		return m.handleSendComplete(msg)

	case ExportDoneMsg:
		return m.handleExportDone(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if !m.pending && !m.vm.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.layout()
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat screen.
func (m Model) View() string {
	return m.renderChat()
}

// ViewModel returns the view-model behind the screen.
func (m Model) ViewModel() *chatbot.ViewModel {
	return m.vm
}
