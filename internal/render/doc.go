// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns bot reply text into display-ready output.
//
// HTMLFormatter produces the <pre><code> fragment kept as the view's
// formatted response. Its TrustMode makes the trust boundary explicit:
// "trusted" inserts the reply verbatim, "escape" shows markup as text, and
// "sanitize" filters it through a bluemonday UGC policy.
//
// Terminal draws replies for the terminal front ends as plain text, a
// chroma-highlighted code block, or glamour-rendered markdown.
package render
