// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// =============================================================================
// TRUST MODES
// =============================================================================

// TrustMode decides how much of a reply's markup survives formatting.
type TrustMode string

const (
	// TrustTrusted injects the reply verbatim. Only safe when the reply
	// source is trusted and the page is a controlled demo.
	TrustTrusted TrustMode = "trusted"

	// TrustEscape HTML-escapes the reply so markup displays as text.
	TrustEscape TrustMode = "escape"

	// TrustSanitize keeps benign markup and strips scripts and handlers.
	TrustSanitize TrustMode = "sanitize"
)

// ParseTrustMode converts a config value to a TrustMode.
func ParseTrustMode(s string) (TrustMode, error) {
	switch TrustMode(strings.ToLower(strings.TrimSpace(s))) {
	case TrustTrusted, "":
		return TrustTrusted, nil
	case TrustEscape:
		return TrustEscape, nil
	case TrustSanitize:
		return TrustSanitize, nil
	default:
		return "", fmt.Errorf("unknown trust mode %q", s)
	}
}

// =============================================================================
// HTML FORMATTER
// =============================================================================

// HTMLFormatter wraps reply text in a preformatted code block.
type HTMLFormatter struct {
	mode   TrustMode
	policy *bluemonday.Policy
}

// NewHTMLFormatter creates a formatter for the given trust mode.
func NewHTMLFormatter(mode TrustMode) *HTMLFormatter {
	f := &HTMLFormatter{mode: mode}
	if mode == TrustSanitize {
		f.policy = bluemonday.UGCPolicy()
	}
	return f
}

// Mode returns the formatter's trust mode.
func (f *HTMLFormatter) Mode() TrustMode {
	return f.mode
}

// Format returns text as <pre><code>…</code></pre>. In trusted mode the text
// is inserted without escaping, so any markup in it is live.
func (f *HTMLFormatter) Format(text string) template.HTML {
	var body string
	switch f.mode {
	case TrustEscape:
		body = html.EscapeString(text)
	case TrustSanitize:
		body = f.policy.Sanitize(text)
	default:
		body = text
	}
	return template.HTML("<pre><code>" + body + "</code></pre>")
}
