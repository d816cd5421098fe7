// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeBlock_RenderKeepsText(t *testing.T) {
	cb := NewCodeBlock("", "plain words\nsecond line")
	cb.SetMaxWidth(60)
	out := cb.Render()

	for _, word := range []string{"plain", "words", "second", "line"} {
		assert.Contains(t, out, word)
	}
	assert.Contains(t, out, "2", "line numbers are drawn")
}

func TestCodeBlock_LanguageHeader(t *testing.T) {
	cb := NewCodeBlock("go", "package main")
	assert.Contains(t, cb.Render(), "go")
}

func TestParseCodeBlocks(t *testing.T) {
	in := "Before\n```python\nprint('hi')\n```\nAfter"
	out := ParseCodeBlocks(in, 60)

	assert.True(t, strings.HasPrefix(out, "Before\n"))
	assert.True(t, strings.HasSuffix(out, "\nAfter"))
	assert.NotContains(t, out, "```")
}

func TestParseCodeBlocks_Unclosed(t *testing.T) {
	out := ParseCodeBlocks("Look:\n```\nx = 1", 60)
	assert.Contains(t, out, "Look:")
	assert.NotContains(t, out, "```")
}

func TestHasCodeFence(t *testing.T) {
	assert.True(t, HasCodeFence("a ``` b"))
	assert.False(t, HasCodeFence("no fence"))
}
