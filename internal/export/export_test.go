// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
)

func sampleDoc() *Document {
	cfg := config.Default()
	return NewDocument(cfg, []model.ChatMessage{
		model.NewBotMessage(config.DefaultWelcome),
		model.NewUserMessage("Show me <b>bold</b>\n\nsecond para"),
		model.NewBotMessage("<i>sure</i>"),
	})
}

func TestNewDocument(t *testing.T) {
	doc := sampleDoc()
	assert.Equal(t, "Chat with Fred", doc.Title)
	assert.Equal(t, "Fred", doc.BotName)
	assert.Equal(t, "gpt-4", doc.Model)
	assert.Equal(t, "assets/img/Jim.png", doc.UserAvatar)
	assert.Equal(t, doc.Messages[0].CreatedAt, doc.CreatedAt)
}

func TestHTMLExporter(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleDoc())
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Chat with Fred</title>")
	assert.Contains(t, page, `class="dark-theme"`)
	assert.Contains(t, page, `src="assets/img/botImage.png"`)
	assert.Contains(t, page, "<p>Show me &lt;b&gt;bold&lt;/b&gt;</p>\n<p>second para</p>")
	assert.Contains(t, page, "<pre><code>&lt;i&gt;sure&lt;/i&gt;</code></pre>", "bot replies are escaped without a formatter")

	welcome := strings.Index(page, "How can I help")
	user := strings.Index(page, "Show me")
	reply := strings.Index(page, "sure")
	assert.True(t, welcome < user && user < reply, "messages keep their order")
}

func TestHTMLExporter_UsesFormatter(t *testing.T) {
	opts := DefaultOptions()
	opts.Formatter = render.NewHTMLFormatter(render.TrustTrusted)
	opts.Theme = "light"

	out, err := NewHTMLExporter(opts).Export(sampleDoc())
	require.NoError(t, err)
	assert.Contains(t, string(out), "<pre><code><i>sure</i></code></pre>")
	assert.Contains(t, string(out), `class="light-theme"`)
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDoc())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Chat with Fred\n"))
	assert.Contains(t, md, "model: gpt-4\n")
	assert.Contains(t, md, "messages: 3\n")
	assert.Contains(t, md, "### Fred <sub>")
	assert.Contains(t, md, "### You <sub>")
	assert.Contains(t, md, "<i>sure</i>")
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleDoc())
	require.NoError(t, err)

	var got Document
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got.Messages, 3)
	assert.True(t, got.Messages[1].User)
	assert.Equal(t, "Fred", got.BotName)
}

func TestExporters_RejectEmpty(t *testing.T) {
	empty := &Document{Title: "x"}
	for _, e := range []Exporter{NewHTMLExporter(nil), NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		_, err := e.Export(empty)
		assert.ErrorIs(t, err, ErrNoMessages, e.FileExtension())
	}

	_, err := NewHTMLExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		in  string
		ext string
	}{
		{"html", ".html"},
		{"", ".html"},
		{"MD", ".md"},
		{"markdown", ".md"},
		{"json", ".json"},
	}
	for _, tt := range tests {
		e, err := ForFormat(tt.in, nil)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.ext, e.FileExtension())
	}

	_, err := ForFormat("pdf", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "exports")

	path, err := ExportMarkdown(sampleDoc(), opts)
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "fredchat_Chat_with_Fred_"), base)
	assert.True(t, strings.HasSuffix(base, ".md"), base)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Show me")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename(`a/b:c d`))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}

func TestFormatTimestamps(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "2025-03-04 05:06:07", formatTimestamp(ts))
	assert.Equal(t, "05:06:07", formatShortTimestamp(ts))
}
