// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/fredchat/internal/ui/components"
)

// Mode selects how bot replies are drawn in a terminal.
type Mode string

const (
	// ModePlain prints the reply unchanged.
	ModePlain Mode = "plain"
	// ModeCode draws the reply as a highlighted, bordered code block.
	ModeCode Mode = "code"
	// ModeMarkdown renders the reply as markdown.
	ModeMarkdown Mode = "markdown"
)

// ParseMode converts a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePlain:
		return ModePlain, nil
	case ModeCode, "":
		return ModeCode, nil
	case ModeMarkdown:
		return ModeMarkdown, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", s)
	}
}

// Terminal renders bot replies for terminal display.
type Terminal struct {
	mode  Mode
	width int
	md    *glamour.TermRenderer
}

// NewTerminal creates a terminal renderer. width is the wrap width.
func NewTerminal(mode Mode, width int) *Terminal {
	t := &Terminal{mode: mode}
	t.SetWidth(width)
	return t
}

// Mode returns the render mode.
func (t *Terminal) Mode() Mode {
	return t.mode
}

// SetWidth changes the wrap width, rebuilding the markdown renderer if needed.
func (t *Terminal) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == t.width && (t.md != nil || t.mode != ModeMarkdown) {
		return
	}
	t.width = width
	t.md = nil
	if t.mode == ModeMarkdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			t.md = r
		}
	}
}

// Render draws text in the configured mode. Rendering failures fall back to
// the plain text.
func (t *Terminal) Render(text string) string {
	switch t.mode {
	case ModeCode:
		if strings.TrimSpace(text) == "" {
			return text
		}
		if components.HasCodeFence(text) {
			return components.ParseCodeBlocks(text, t.width)
		}
		cb := components.NewCodeBlock("", text)
		cb.SetMaxWidth(t.width)
		return cb.Render()
	case ModeMarkdown:
		if t.md == nil {
			return text
		}
		out, err := t.md.Render(text)
		if err != nil {
			return text
		}
		return strings.TrimRight(out, "\n")
	default:
		return text
	}
}
