// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/completion"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
	"github.com/jeranaias/fredchat/internal/ui/styles"
)

type stubKeys struct{ key string }

func (s stubKeys) GetAPIKey(context.Context) string { return s.key }

type stubCompleter struct {
	reply string
	err   error
	got   []model.Turn
}

func (s *stubCompleter) Complete(_ context.Context, _ string, turns []model.Turn) (string, error) {
	s.got = turns
	return s.reply, s.err
}

func newTestModel(t *testing.T, keys chatbot.KeyProvider, comp chatbot.Completer) (Model, *config.Config) {
	t.Helper()
	prev := logging.L()
	logging.Set(logging.New("error", io.Discard))
	t.Cleanup(func() { logging.Set(prev) })

	cfg := config.Default()
	cfg.UI.ExportDir = t.TempDir()
	cfg.UI.RenderMode = "plain"
	vm := chatbot.New(chatbot.OptionsFromConfig(cfg), keys, comp, render.NewHTMLFormatter(render.TrustEscape))
	return New(context.Background(), cfg, vm, styles.NewTheme()), cfg
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestView_BeforeResize(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "hi"})
	assert.Equal(t, "Starting...", m.View())
	assert.NotNil(t, m.Init())
}

func TestResize_ShowsWelcome(t *testing.T) {
	m, cfg := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "hi"})
	m = sized(t, m)

	assert.Equal(t, 100, m.viewport.Width)
	assert.Greater(t, m.viewport.Height, 10)
	view := m.View()
	assert.Contains(t, view, cfg.UI.BotName)
	assert.Contains(t, view, "How can I help you today?")
}

func TestSend_RoundTrip(t *testing.T) {
	comp := &stubCompleter{reply: "  Hello there  "}
	m, _ := newTestModel(t, stubKeys{"k"}, comp)
	m = sized(t, m)
	m = typeText(t, m, "Hi Fred")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Equal(t, "Hi Fred", m.vm.Input())

	msg := SendCmd(context.Background(), m.vm)()
	require.IsType(t, SendCompleteMsg{}, msg)
	m, _ = update(t, m, msg)

	assert.False(t, m.pending)
	assert.Empty(t, m.input.Value())
	msgs := m.vm.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello there", msgs[2].Text)
	assert.Contains(t, m.viewport.View(), "Hello there")
	assert.Equal(t, "Hi Fred", comp.got[1].Content)
}

func TestSend_SecondEnterWhilePendingIsDropped(t *testing.T) {
	comp := &stubCompleter{reply: "once"}
	m, _ := newTestModel(t, stubKeys{"k"}, comp)
	m = sized(t, m)
	m = typeText(t, m, "Hi Fred")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, m.pending)
	require.False(t, m.vm.Loading(), "SendCmd has not run yet")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.statusMsg, "still replying")

	m = typeText(t, m, "more")
	assert.Equal(t, "Hi Fred", m.input.Value(), "input is locked while pending")

	m, _ = update(t, m, SendCmd(context.Background(), m.vm)())
	assert.False(t, m.pending)
	assert.Len(t, m.vm.Messages(), 3)
}

func TestSend_WhitespaceIgnored(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)
	m = typeText(t, m, "   ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.pending)
	assert.Len(t, m.vm.Messages(), 1)
}

func TestSend_NormalizesToNFC(t *testing.T) {
	comp := &stubCompleter{reply: "ok"}
	m, _ := newTestModel(t, stubKeys{"k"}, comp)
	m = sized(t, m)
	m = typeText(t, m, "cafe\u0301")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "caf\u00e9", m.vm.Input())
}

func TestSend_ErrorBanner(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{""}, &stubCompleter{reply: "never"})
	m = sized(t, m)
	m = typeText(t, m, "Hi")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, SendCmd(context.Background(), m.vm)())

	assert.Contains(t, m.View(), chatbot.MsgKeyFailure)
}

func TestSend_TechnicalDifficultiesBanner(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{err: completion.ErrRequestFailed})
	m = sized(t, m)
	m = typeText(t, m, "Hi")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, SendCmd(context.Background(), m.vm)())

	view := m.View()
	assert.Contains(t, view, "technical difficulties")
}

func TestSendInProgress_KeepsInput(t *testing.T) {
	m, cfg := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)
	m = typeText(t, m, "draft")

	m, _ = update(t, m, SendCompleteMsg{Err: chatbot.ErrSendInProgress})
	assert.Equal(t, "draft", m.input.Value())
	assert.Contains(t, m.statusMsg, cfg.UI.BotName)
}

func TestNewline_GrowsInput(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)
	before := m.viewport.Height

	m = typeText(t, m, "one")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "two")

	assert.Equal(t, "one\ntwo", m.input.Value())
	assert.Equal(t, 2, m.input.Height())
	assert.Equal(t, before-1, m.viewport.Height)
	assert.Len(t, m.vm.Messages(), 1, "alt+enter does not send")
}

func TestNewline_HeightIsCapped(t *testing.T) {
	m, cfg := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)

	for i := 0; i < cfg.UI.MaxInputLines+4; i++ {
		m = typeText(t, m, "line")
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	}
	assert.Equal(t, cfg.UI.MaxInputLines, m.input.Height())
}

func TestScrollHook_NoOpBeforeResize(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	assert.NotPanics(t, m.vm.RenderComplete)
}

func TestScroll_StaysAtBottom(t *testing.T) {
	comp := &stubCompleter{reply: strings.Repeat("line\n", 60) + "LAST"}
	comp.reply = strings.TrimSpace(comp.reply)
	m, _ := newTestModel(t, stubKeys{"k"}, comp)
	m = sized(t, m)
	m = typeText(t, m, "long please")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, SendCmd(context.Background(), m.vm)())

	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.viewport.View(), "LAST")
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	for _, k := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, cmd := update(t, m, k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestExport(t *testing.T) {
	m, cfg := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotNil(t, cmd)
	done, ok := cmd().(ExportDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, cfg.UI.ExportDir, filepath.Dir(done.Path))

	m, _ = update(t, m, done)
	assert.Contains(t, m.statusMsg, "Exported to")
}

func TestConfigReloaded(t *testing.T) {
	m, _ := newTestModel(t, stubKeys{"k"}, &stubCompleter{reply: "x"})
	m = sized(t, m)

	next := config.Default()
	next.UI.RenderMode = "markdown"
	m, _ = update(t, m, ConfigReloadedMsg{Config: next})
	assert.Equal(t, render.ModeMarkdown, m.renderer.Mode())
	assert.Contains(t, m.statusMsg, "Config reloaded")

	m, _ = update(t, m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.Contains(t, m.statusMsg, "reload failed")
	assert.Equal(t, render.ModeMarkdown, m.renderer.Mode())
}
