// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoMessages is returned when the transcript is empty.
	ErrNoMessages = errors.New("transcript has no messages")

	// ErrUnknownFormat is returned by ForFormat for unsupported names.
	ErrUnknownFormat = errors.New("unknown export format")
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to a file format.
type Exporter interface {
	// Export converts the document to the target format.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Formatter formats bot reply text as HTML.
type Formatter interface {
	Format(text string) template.HTML
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a transcript plus the labels needed to present it.
type Document struct {
	Title      string              `json:"title"`
	Model      string              `json:"model,omitempty"`
	BotName    string              `json:"bot_name"`
	UserAvatar string              `json:"user_avatar,omitempty"`
	BotAvatar  string              `json:"bot_avatar,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	Messages   []model.ChatMessage `json:"messages"`
}

// NewDocument builds a document for msgs using the labels in cfg.
func NewDocument(cfg *config.Config, msgs []model.ChatMessage) *Document {
	doc := &Document{
		Title:     "Chat with " + cfg.UI.BotName,
		Model:     cfg.Completion.Model,
		BotName:   cfg.UI.BotName,
		CreatedAt: time.Now(),
		Messages:  msgs,
	}
	doc.UserAvatar = cfg.UI.UserAvatar
	doc.BotAvatar = cfg.UI.BotAvatar
	if len(msgs) > 0 {
		doc.CreatedAt = msgs[0].CreatedAt
	}
	return doc
}

func (d *Document) validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	if len(d.Messages) == 0 {
		return ErrNoMessages
	}
	return nil
}

// senderLabel returns the display name for a message's sender.
func (d *Document) senderLabel(msg model.ChatMessage) string {
	if msg.User {
		return "You"
	}
	if d.BotName != "" {
		return d.BotName
	}
	return "Bot"
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files are written.
	OutputDir string

	// IncludeMetadata adds a header with model and message count.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Formatter renders bot replies in HTML exports. Nil escapes them.
	Formatter Formatter
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForFormat returns the exporter for a format name: html, markdown (md) or json.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "html", "":
		return NewHTMLExporter(opts), nil
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ExportToFile writes doc to a timestamped file in opts.OutputDir and returns
// its path. Files are created owner-only since transcripts may hold private
// conversation text.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("fredchat_%s_%s%s",
		sanitizeFilename(doc.Title),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}

	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0600, 0700); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// ExportMarkdown exports to Markdown format.
func ExportMarkdown(doc *Document, opts *Options) (string, error) {
	return ExportToFile(doc, NewMarkdownExporter(opts), opts)
}

// ExportHTML exports to HTML format.
func ExportHTML(doc *Document, opts *Options) (string, error) {
	return ExportToFile(doc, NewHTMLExporter(opts), opts)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for headers.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
