// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/fredchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a document to HTML.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(doc.Title))
	sb.WriteString("    <meta name=\"generator\" content=\"fredchat\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(doc))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range doc.Messages {
		sb.WriteString(e.renderMessage(doc, msg))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>fredchat</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(doc *Document) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(doc.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if doc.Model != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(doc.Model))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Started:</strong> %s</span>\n", formatTimestamp(doc.CreatedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(doc.Messages))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(doc *Document, msg model.ChatMessage) string {
	var sb strings.Builder

	class, avatar := "bot", doc.BotAvatar
	if msg.User {
		class, avatar = "user", doc.UserAvatar
	}
	label := html.EscapeString(doc.senderLabel(msg))

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", class)
	sb.WriteString("                <div class=\"message-header\">\n")
	if avatar != "" {
		fmt.Fprintf(&sb, "                    <img class=\"avatar\" src=\"%s\" alt=\"%s\">\n", html.EscapeString(avatar), label)
	}
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", label)
	if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.CreatedAt))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// formatContent renders user text escaped in paragraphs and bot replies
// through the configured formatter.
func (e *HTMLExporter) formatContent(msg model.ChatMessage) string {
	if !msg.User {
		if e.options.Formatter != nil {
			return string(e.options.Formatter.Format(msg.Text))
		}
		return "<pre><code>" + html.EscapeString(msg.Text) + "</code></pre>"
	}

	var paras []string
	for _, p := range strings.Split(strings.TrimSpace(msg.Text), "\n\n") {
		p = html.EscapeString(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		paras = append(paras, "<p>"+strings.ReplaceAll(p, "\n", "<br>")+"</p>")
	}
	return strings.Join(paras, "\n")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --user-bg: #1f2335;
            --bot-bg: #2a2e45;
            --code-bg: #1a1b26;
            --accent: #7aa2f7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --user-bg: #eef4ff;
            --bot-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent: #0366d6;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; background: var(--bg-secondary); border-radius: 12px; overflow: hidden; }
        .header { padding: 24px 32px; background: var(--bg-tertiary); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .conversation { padding: 24px 32px; }
        .message { margin-bottom: 16px; padding: 12px 16px; border-radius: 8px; }
        .user-message { background: var(--user-bg); margin-left: 48px; }
        .bot-message { background: var(--bot-bg); margin-right: 48px; }
        .message-header { display: flex; align-items: center; gap: 8px; margin-bottom: 8px; }
        .avatar { width: 28px; height: 28px; border-radius: 50%; }
        .role-label { font-weight: 600; color: var(--accent); }
        .timestamp { font-size: 12px; color: var(--text-muted); }
        pre { background: var(--code-bg); padding: 12px; border-radius: 6px; overflow-x: auto; white-space: pre-wrap; }
        code { font-family: "SF Mono", Monaco, "Fira Code", monospace; font-size: 14px; }
        .footer { padding: 16px 32px; font-size: 13px; color: var(--text-muted); text-align: center; }
    </style>
`
